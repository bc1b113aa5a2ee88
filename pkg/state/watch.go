package state

import "sync"

// Watch returns a chan signaled after any update and a func to stop
// watching. Signals coalesce: a slow watcher sees one pending signal
// however many updates happened.
func (s *Store) Watch() (<-chan struct{}, func()) {
	return s.watchers.add()
}

type watchers struct {
	chans map[chan struct{}]struct{}
	lock  sync.Mutex
}

func (w *watchers) add() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	w.lock.Lock()
	if w.chans == nil {
		w.chans = make(map[chan struct{}]struct{})
	}
	w.chans[ch] = struct{}{}
	w.lock.Unlock()
	return ch, func() {
		w.lock.Lock()
		delete(w.chans, ch)
		w.lock.Unlock()
	}
}

func (w *watchers) notify() {
	w.lock.Lock()
	defer w.lock.Unlock()
	for ch := range w.chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
