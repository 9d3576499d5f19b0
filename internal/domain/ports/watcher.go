package ports

import "context"

// ChangeListener receives root-relative paths of modified files.
//
// OnChange is called from the watch loop goroutine; a slow implementation
// delays processing of subsequent filesystem events.
type ChangeListener interface {
	OnChange(relPath string)
}

// ChangeListenerFunc adapts a function to ChangeListener.
type ChangeListenerFunc func(relPath string)

// OnChange calls f(relPath).
func (f ChangeListenerFunc) OnChange(relPath string) {
	f(relPath)
}

// EventKind classifies an entry event reported for a watched directory.
type EventKind int

const (
	// EventOverflow means events were lost; Name is empty.
	EventOverflow EventKind = iota
	EventCreate
	EventDelete
	EventModify
)

func (k EventKind) String() string {
	switch k {
	case EventOverflow:
		return "overflow"
	case EventCreate:
		return "create"
	case EventDelete:
		return "delete"
	case EventModify:
		return "modify"
	default:
		return "unknown"
	}
}

// WatchEvent is a single entry event within a watched directory.
type WatchEvent struct {
	Kind EventKind
	// Name is the entry name relative to the key's directory.
	Name string
}

// WatchKey is the registration of one directory with a WatchService.
type WatchKey interface {
	// Dir returns the directory this key was registered for.
	Dir() string

	// PollEvents removes and returns the pending batch.
	PollEvents() []WatchEvent

	// Reset re-arms the key after its batch was consumed. It returns false
	// when the key is no longer valid (directory removed or key cancelled).
	Reset() bool

	// Cancel stops watching the directory.
	Cancel()
}

// WatchService is the per-directory notification capability consumed by the
// recursive watcher. It does not recurse on its own.
type WatchService interface {
	// Register starts watching dir for entry create, delete and modify events.
	Register(dir string) (WatchKey, error)

	// Take blocks until some key is signalled. It returns
	// domain.ErrWatchServiceClosed once Close has been called.
	Take(ctx context.Context) (WatchKey, error)

	// Close releases the service and unblocks any pending Take.
	Close() error
}
