// Package system integrates with the host the controller runs on.
package system

import (
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
)

// DefaultRestartDelay lets the reply of a restart request go out first.
const DefaultRestartDelay = 200 * time.Millisecond

// Restarter stops the process for a restart. It cancels the root context;
// the daemon calls Reexec once everything has shut down.
type Restarter struct {
	Delay time.Duration

	stop      func()
	requested bool
	once      sync.Once
	lock      sync.Mutex
}

// NewRestarter creates a Restarter calling stop, usually the cancel func of
// the root context.
func NewRestarter(stop func()) *Restarter {
	return &Restarter{Delay: DefaultRestartDelay, stop: stop}
}

// Restart requests a restart. Only the first call has effect.
func (r *Restarter) Restart() {
	r.once.Do(func() {
		r.lock.Lock()
		r.requested = true
		r.lock.Unlock()
		glog.Info("restart requested")
		time.AfterFunc(r.Delay, r.stop)
	})
}

// Requested indicates Restart was called.
func (r *Restarter) Requested() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.requested
}

// Reexec replaces the current process with a fresh copy of itself.
// It only returns on failure.
func Reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	glog.Infof("re-executing %s", exe)
	glog.Flush()
	return syscall.Exec(exe, os.Args, os.Environ())
}
