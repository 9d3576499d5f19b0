//go:build deadlock

// Package sync aliases the lock types used by the watcher, hub, and server so
// a build with -tags deadlock can swap in go-deadlock.
package sync

import (
	"os"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Mutex reports lock waits longer than Opts.DeadlockTimeout.
type Mutex = deadlock.Mutex

// RWMutex reports lock waits longer than Opts.DeadlockTimeout.
type RWMutex = deadlock.RWMutex

// Once is not instrumented.
type Once = sync.Once

// WaitGroup is not instrumented.
type WaitGroup = sync.WaitGroup

func init() {
	if os.Getenv("LRD_NO_DEADLOCK_DETECT") != "" {
		deadlock.Opts.Disable = true
		return
	}

	deadlock.Opts.DeadlockTimeout = 10 * time.Second
	deadlock.Opts.PrintAllCurrentGoroutines = true
	deadlock.Opts.LogBuf = os.Stderr

	println("[lrd] deadlock detection enabled")
}
