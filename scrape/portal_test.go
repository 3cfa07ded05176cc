package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_BoundsEverything(t *testing.T) {
	cfg := DefaultConfig("https://portal.example.com")

	// Every wait in the fetcher must carry a budget: the page load,
	// the readiness poll, and the request pacing.
	assert.Equal(t, 45*time.Second, cfg.PageTimeout)
	assert.Equal(t, 12, cfg.RequestsPerMinute)
	assert.Equal(t, 10, cfg.ReadyAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadyInterval)
	assert.True(t, cfg.Headless)
	assert.NotEmpty(t, cfg.Selectors.ActionStatus)
}

func TestTextPatterns(t *testing.T) {
	body := `Claim CLM-42
Request Scheduled for 15 Mar 2026, 10:00 AM
For Sending Replacement
Courier: FastShip
AWB Number: AWB123456789
`

	assert.Equal(t, "15 Mar 2026, 10:00 AM", firstGroup(schedulePattern, body))
	assert.Equal(t, "AWB123456789", firstGroup(shippingPattern, body))
	assert.Empty(t, firstGroup(schedulePattern, "nothing scheduled here"))

	assert.True(t, notFoundPattern.MatchString("No Claim Found for this reference"))
	assert.True(t, notFoundPattern.MatchString("no record found"))
	assert.False(t, notFoundPattern.MatchString(body))
}
