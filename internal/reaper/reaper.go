// Package reaper runs a periodic sweep over a Telnet server's live sessions,
// sending each a keepalive go-ahead and logging any session whose keepalive
// write fails. It does not close sessions; idle timeouts are enforced only by
// each session's own timer.
package reaper

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// SessionLister is the subset of *telnet.Server a Reaper needs; defined
// locally so this package doesn't import the root module (avoiding an
// import cycle, since the root module could in principle wire a Reaper in).
type SessionLister interface {
	Sessions() []Session
}

// Session is the subset of *telnet.Session a Reaper acts on.
type Session interface {
	ID() string
	SendKeepalive() error
}

// Reaper periodically visits every live session on a schedule expressed as a
// cron expression (e.g. "@every 30s"), built on robfig/cron the same way a
// periodic event scheduler drives recurring jobs off it.
type Reaper struct {
	lister   SessionLister
	cron     *cron.Cron
	mu       sync.Mutex
	sweeping bool
}

// New builds a Reaper that sweeps lister on the given cron schedule.
func New(lister SessionLister, schedule string) (*Reaper, error) {
	r := &Reaper{
		lister: lister,
		cron:   cron.New(),
	}
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins running the cron schedule in the background.
func (r *Reaper) Start() { r.cron.Start() }

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (r *Reaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Reaper) sweep() {
	r.mu.Lock()
	if r.sweeping {
		r.mu.Unlock()
		logging.Debug("reaper: previous sweep still running, skipping tick")
		return
	}
	r.sweeping = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.sweeping = false
		r.mu.Unlock()
	}()

	sessions := r.lister.Sessions()
	for _, s := range sessions {
		if err := s.SendKeepalive(); err != nil {
			logging.Warn("reaper: keepalive to session %s failed: %v", s.ID(), err)
		}
	}
	logging.Debug("reaper: swept %d sessions", len(sessions))
}
