package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromTimeUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	// local time is still January, UTC is already February
	assert.Equal(t, "2026-02", FromTime(time.Date(2026, 1, 31, 18, 0, 0, 0, loc)))
	assert.Equal(t, "2026-03", FromTime(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPrevious(t *testing.T) {
	assert.Equal(t, "2026-02", Previous(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12", Previous(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNextBoundary(t *testing.T) {
	next := NextBoundary(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), next)
}
