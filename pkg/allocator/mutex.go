package allocator

import "sync"

// Mutex is the Go shape of the source's Locked<A> wrapper: every
// public engine method locks it for its entire body and arena
// acquisition from the host is the only blocking step that ever
// happens while it is held.
type Mutex struct {
	sync.Mutex
}
