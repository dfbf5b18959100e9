package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerFires(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	var fired atomic.Int32
	s.Schedule("R1", "p1", func() { fired.Add(1) })
	assert.True(t, s.Pending("R1", "p1"))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Pending("R1", "p1"))
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	var fired atomic.Bool
	s.Schedule("R1", "p1", func() { fired.Store(true) })
	assert.True(t, s.Cancel("R1", "p1"))
	assert.False(t, s.Cancel("R1", "p1"))

	assert.Never(t, fired.Load, 80*time.Millisecond, 10*time.Millisecond)
}

func TestSchedulerSupersedes(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	var first, second atomic.Int32
	s.Schedule("R1", "p1", func() { first.Add(1) })
	s.Schedule("R1", "p1", func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestSchedulerStop(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	var fired atomic.Bool
	s.Schedule("R1", "p1", func() { fired.Store(true) })
	s.Schedule("R2", "p2", func() { fired.Store(true) })
	s.Stop()

	assert.False(t, s.Pending("R1", "p1"))
	assert.Never(t, fired.Load, 80*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, DefaultGracePeriod, NewScheduler(0).Delay())
}
