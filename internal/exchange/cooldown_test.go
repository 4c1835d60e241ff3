package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownForFixedCodes(t *testing.T) {
	assert.Equal(t, 60*time.Minute, CooldownFor(403, ""))
	assert.Equal(t, 5*time.Minute, CooldownFor(408, ""))
	assert.Equal(t, 120*time.Minute, CooldownFor(418, ""))
	assert.Equal(t, 15*time.Minute, CooldownFor(503, ""))
}

func TestCooldownForRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Minute, CooldownFor(429, "120"))
	assert.Equal(t, 1*time.Minute, CooldownFor(429, "30"), "sub-minute Retry-After floors to 1 minute")
	assert.Equal(t, 30*time.Minute, CooldownFor(429, ""))
	assert.Equal(t, 30*time.Minute, CooldownFor(429, "not-a-number"))
}

func TestCooldownForStatusRanges(t *testing.T) {
	assert.Equal(t, 15*time.Minute, CooldownFor(500, ""))
	assert.Equal(t, 15*time.Minute, CooldownFor(599, ""))
	assert.Equal(t, 10*time.Minute, CooldownFor(404, ""))
	assert.Equal(t, time.Duration(0), CooldownFor(200, ""))
}

func TestCooldownTriggerAndActive(t *testing.T) {
	var c Cooldown
	assert.False(t, c.Active())

	c.Trigger(50 * time.Millisecond)
	assert.True(t, c.Active())
	assert.Greater(t, c.Remaining(), time.Duration(0))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, c.Active())
	assert.Equal(t, time.Duration(0), c.Remaining())
}

func TestCooldownTriggerNonPositiveIsNoop(t *testing.T) {
	var c Cooldown
	c.Trigger(0)
	assert.False(t, c.Active())
	c.Trigger(-time.Second)
	assert.False(t, c.Active())
}

func TestCooldownTriggerExtendsOnlyForward(t *testing.T) {
	var c Cooldown
	c.Trigger(200 * time.Millisecond)
	first := c.Remaining()

	c.Trigger(10 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Remaining(), first-10*time.Millisecond, "a shorter trigger must not shrink an active cooldown")
}
