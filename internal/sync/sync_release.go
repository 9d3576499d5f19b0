//go:build !deadlock

// Package sync aliases the lock types used by the watcher, hub, and server so
// a build with -tags deadlock can swap in go-deadlock.
package sync

import "sync"

type (
	Mutex     = sync.Mutex
	RWMutex   = sync.RWMutex
	Once      = sync.Once
	WaitGroup = sync.WaitGroup
)
