package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSignerSignatureMatchesExpected(t *testing.T) {
	s := HMACSigner{APIKey: "key-1", APISecret: "secret-1"}

	params := map[string]string{"symbol": "BTCUSDT", "side": "BUY"}
	body, headers, err := s.Sign("BINANCE", "POST", "/api/v3/order", params)
	require.NoError(t, err)

	expectedQuery := encodeParams(params)
	mac := hmac.New(sha256.New, []byte(s.APISecret))
	mac.Write([]byte(expectedQuery))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expectedQuery+"&signature="+expectedSig, body)
	assert.Equal(t, "key-1", headers["X-API-KEY"])
}

func TestHMACSignerEmptyParams(t *testing.T) {
	s := HMACSigner{APIKey: "key-1", APISecret: "secret-1"}

	body, _, err := s.Sign("BINANCE", "GET", "/api/v3/account", nil)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(s.APISecret))
	mac.Write([]byte(""))
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, "signature="+expectedSig, body)
}

func TestHMACSignerIsDeterministic(t *testing.T) {
	s := HMACSigner{APIKey: "key-1", APISecret: "secret-1"}
	params := map[string]string{"a": "1", "b": "2"}

	body1, _, err := s.Sign("BINANCE", "POST", "/x", params)
	require.NoError(t, err)
	body2, _, err := s.Sign("BINANCE", "POST", "/x", params)
	require.NoError(t, err)

	assert.Equal(t, body1, body2)
}

func TestHMACSignerDifferentSecretsDiffer(t *testing.T) {
	params := map[string]string{"a": "1"}
	s1 := HMACSigner{APIKey: "key-1", APISecret: "secret-1"}
	s2 := HMACSigner{APIKey: "key-1", APISecret: "secret-2"}

	body1, _, err := s1.Sign("BINANCE", "POST", "/x", params)
	require.NoError(t, err)
	body2, _, err := s2.Sign("BINANCE", "POST", "/x", params)
	require.NoError(t, err)

	assert.NotEqual(t, body1, body2)
}
