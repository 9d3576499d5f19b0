package watchservice

import "github.com/brianly1003/lrd/internal/domain/ports"

// Key is the registration of one directory. All fields are guarded by the
// owning Service's mutex.
type Key struct {
	svc *Service
	dir string

	events    []ports.WatchEvent
	signalled bool
	valid     bool
}

var _ ports.WatchKey = (*Key)(nil)

// Dir returns the watched directory.
func (k *Key) Dir() string {
	return k.dir
}

// PollEvents removes and returns the pending events.
func (k *Key) PollEvents() []ports.WatchEvent {
	k.svc.mu.Lock()
	defer k.svc.mu.Unlock()

	events := k.events
	k.events = nil
	return events
}

// Reset re-arms the key. Events that arrived since PollEvents put the key
// straight back on the ready queue.
func (k *Key) Reset() bool {
	k.svc.mu.Lock()
	defer k.svc.mu.Unlock()

	if !k.valid {
		return false
	}
	if k.signalled {
		if len(k.events) > 0 {
			k.svc.enqueueLocked(k)
		} else {
			k.signalled = false
		}
	}
	return true
}

// IsValid reports whether the key is still registered.
func (k *Key) IsValid() bool {
	k.svc.mu.Lock()
	defer k.svc.mu.Unlock()
	return k.valid
}

// Cancel stops watching the key's directory.
func (k *Key) Cancel() {
	k.svc.mu.Lock()
	if !k.valid {
		k.svc.mu.Unlock()
		return
	}
	k.valid = false
	if k.svc.keys[k.dir] == k {
		delete(k.svc.keys, k.dir)
	}
	closed := k.svc.closed
	k.svc.mu.Unlock()

	if !closed {
		_ = k.svc.fsw.Remove(k.dir)
	}
}
