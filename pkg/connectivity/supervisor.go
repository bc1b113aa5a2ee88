package connectivity

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Supervisor defaults.
const (
	DefaultMinBackoff  = time.Second
	DefaultMaxBackoff  = time.Minute
	DefaultMaxAttempts = 5
)

// Supervisor re-enters station bring-up after the link drops.
// Retries back off exponentially between MinBackoff and MaxBackoff; after
// MaxAttempts consecutive failures the access point is started and
// supervision ends.
type Supervisor struct {
	Manager     *Manager
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	MaxAttempts int
}

// NewSupervisor creates a Supervisor with default bounds.
func NewSupervisor(m *Manager) *Supervisor {
	return &Supervisor{
		Manager:     m,
		MinBackoff:  DefaultMinBackoff,
		MaxBackoff:  DefaultMaxBackoff,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Name implements framework.Named.
func (s *Supervisor) Name() string {
	return "wifi-supervisor"
}

// Run implements framework.Runnable.
func (s *Supervisor) Run(ctx context.Context) error {
	m := s.Manager
	if !m.Radio.Monitored() {
		glog.V(2).Info("connectivity: radio does not report link loss, not supervising")
		return nil
	}
	for m.State() == ClientConnected {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.Radio.LinkDown():
		}
		glog.Warning("WIFI link lost")
		if err := s.reconnect(ctx); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *Supervisor) reconnect(ctx context.Context) error {
	m := s.Manager
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = sleep(ctx, s.backoff(attempt)); err != nil {
			return err
		}
		m.setState(AttemptingClient)
		creds, credErr := m.storedCredentials()
		if err = credErr; err != nil {
			break
		}
		if _, err = m.connectClient(ctx, creds); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("WIFI reconnect attempt %d/%d: %v", attempt+1, maxAttempts, err)
	}
	glog.Infof("WIFI Connect -- FAIL: %v", err)
	creds, _, _ := m.Credentials.Get()
	_, err = m.startAccessPoint(ctx, creds)
	return err
}

func (s *Supervisor) backoff(attempt int) time.Duration {
	min, max := s.MinBackoff, s.MaxBackoff
	if min <= 0 {
		min = DefaultMinBackoff
	}
	if max < min {
		max = min
	}
	d := min
	for i := 0; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
