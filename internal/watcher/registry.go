package watcher

import (
	"io/fs"
	"path/filepath"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/ports"
	"github.com/rs/zerolog/log"
)

// registry maps watch keys to the directories they were registered for.
// Only the goroutine that owns the Watcher touches it: the constructor before
// the loop starts, and the loop afterwards.
type registry struct {
	svc  ports.WatchService
	dirs map[ports.WatchKey]string
}

func newRegistry(svc ports.WatchService) *registry {
	return &registry{
		svc:  svc,
		dirs: make(map[ports.WatchKey]string),
	}
}

// registerOne starts watching a single directory.
func (r *registry) registerOne(dir string) error {
	key, err := r.svc.Register(dir)
	if err != nil {
		return domain.NewRegistrationError(dir, err)
	}
	r.dirs[key] = dir
	log.Trace().Str("dir", dir).Msg("watching directory")
	return nil
}

// registerRecursive registers dir and every real directory beneath it.
// Symlinked directories are not followed. The first failure stops the walk
// and is returned; directories registered before it stay registered.
func (r *registry) registerRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return domain.NewRegistrationError(path, err)
		}
		if !d.IsDir() {
			return nil
		}
		return r.registerOne(path)
	})
}

// resolve returns the directory registered for key.
func (r *registry) resolve(key ports.WatchKey) (string, bool) {
	dir, ok := r.dirs[key]
	return dir, ok
}

// invalidate forgets key and reports whether nothing is watched anymore.
func (r *registry) invalidate(key ports.WatchKey) bool {
	delete(r.dirs, key)
	return len(r.dirs) == 0
}

func (r *registry) len() int {
	return len(r.dirs)
}
