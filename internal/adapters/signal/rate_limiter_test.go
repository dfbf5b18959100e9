package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRoomRateLimiter(2, time.Second)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("p1"))
	assert.True(t, rl.Allow("p1"))
	assert.False(t, rl.Allow("p1"))
	assert.True(t, rl.Allow("p2"), "limits are per user")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, rl.Allow("p1"))
}
