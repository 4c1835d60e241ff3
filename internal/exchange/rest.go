// rest.go is the shared signed-REST helper every venue variant composes,
// grounded on pkg/exchange/binance/client.go's doRequest/doPostRequest
// shape (build query, sign, issue http.Request, parse rate-limit headers,
// trigger cooldown on 4xx/5xx).
package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/brightpool/arbiq/internal/xerrors"
	"github.com/brightpool/arbiq/pkg/log"
)

func encodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, k := range keys {
		values.Set(k, params[k])
	}
	return values.Encode()
}

// RESTClient issues signed HTTP requests and maintains the venue's
// cooldown state. One RESTClient per venue client.
type RESTClient struct {
	BaseURL  string
	HTTP     *http.Client
	Signer   Signer
	Venue    string
	Cooldown *Cooldown
	Log      log.Logger

	// RateLimitHeaderParser extracts (remaining, limit) from a response's
	// headers, venue-specific (spec §9: each venue's documented header
	// name, not a shared/copy-pasted one).
	RateLimitHeaderParser func(h http.Header) (remaining, limit int, ok bool)
}

// NewRESTClient builds a RESTClient with a 10s default timeout.
func NewRESTClient(venueName, baseURL string, signer Signer, logger log.Logger) *RESTClient {
	if logger == nil {
		logger = log.Nop()
	}
	return &RESTClient{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		Signer:   signer,
		Venue:    venueName,
		Cooldown: &Cooldown{},
		Log:      logger.With(log.String("venue", venueName)),
	}
}

// Do issues a signed request. While in cooldown it fails fast without
// touching the network (spec §4.4).
func (r *RESTClient) Do(ctx context.Context, method, path string, params map[string]string, signed bool) ([]byte, error) {
	if r.Cooldown.Active() {
		return nil, fmt.Errorf("%w: %s remaining", xerrors.ErrCooldown, r.Cooldown.Remaining())
	}

	var body string
	var headers map[string]string
	var err error
	if signed {
		body, headers, err = r.Signer.Sign(r.Venue, method, path, params)
	} else {
		body = encodeParams(params)
	}
	if err != nil {
		return nil, err
	}

	var req *http.Request
	if method == http.MethodGet || method == http.MethodDelete {
		u := r.BaseURL + path
		if body != "" {
			u += "?" + body
		}
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, r.BaseURL+path, strings.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", xerrors.ErrTransportFailure, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if r.RateLimitHeaderParser != nil {
		if remaining, limit, ok := r.RateLimitHeaderParser(resp.Header); ok && limit > 0 {
			if float64(remaining) < 0.10*float64(limit) {
				r.Log.Warn("approaching rate limit", log.Int("remaining", remaining), log.Int("limit", limit))
				r.Cooldown.Trigger(time.Minute)
			}
		}
	}

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		d := CooldownFor(resp.StatusCode, resp.Header.Get("Retry-After"))
		r.Cooldown.Trigger(d)
		if resp.StatusCode == 429 || resp.StatusCode == 418 || resp.StatusCode == 403 {
			return data, fmt.Errorf("%w: http %d", xerrors.ErrRateLimited, resp.StatusCode)
		}
		return data, fmt.Errorf("%w: http %d: %s", xerrors.ErrOrderRejected, resp.StatusCode, string(data))
	}

	return data, nil
}
