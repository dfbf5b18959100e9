package app

import (
	"sync"
	"time"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultGracePeriod = 30 * time.Second

type graceKey struct {
	room domain.RoomID
	user domain.UserID
}

// Scheduler holds at most one pending grace task per (room, user).
type Scheduler struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[graceKey]*time.Timer
}

func NewScheduler(delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultGracePeriod
	}
	return &Scheduler{delay: delay, timers: make(map[graceKey]*time.Timer)}
}

func (s *Scheduler) Delay() time.Duration { return s.delay }

// Schedule arms fn to run after the grace delay, superseding any task already
// pending for the same room and user.
func (s *Scheduler) Schedule(room domain.RoomID, user domain.UserID, fn func()) {
	key := graceKey{room: room, user: user}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		current := s.timers[key] == t
		if current {
			delete(s.timers, key)
		}
		s.mu.Unlock()
		if current {
			fn()
		}
	})
	s.timers[key] = t
	log.Debug().Str("module", "app.grace").Str("room", string(room)).Str("user", string(user)).Dur("delay", s.delay).Msg("grace scheduled")
}

// Cancel drops the pending task, if any.
func (s *Scheduler) Cancel(room domain.RoomID, user domain.UserID) bool {
	key := graceKey{room: room, user: user}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, key)
	log.Debug().Str("module", "app.grace").Str("room", string(room)).Str("user", string(user)).Msg("grace canceled")
	return true
}

func (s *Scheduler) Pending(room domain.RoomID, user domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[graceKey{room: room, user: user}]
	return ok
}

// Stop cancels everything; used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
