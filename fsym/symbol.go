// Package fsym implements a process-wide registry of opaque symbol
// identifiers, optionally associated with a human-readable name.
//
// A Symbol is the unit of identity used throughout the reactive notebook
// core: every input, derived computation and sub-namespace is addressed by
// one. Symbols compare by value (two Symbols obtained via the same name are
// equal) and are cheap to pass around and use as map keys.
package fsym

import "sync"

// Symbol is an opaque identifier naming an entity within one or more
// namespaces. The zero Symbol is never handed out by New or WithName, and is
// reserved to mean "no symbol" for callers that want a sentinel.
type Symbol struct {
	id uint64
}

// String implements fmt.Stringer, mostly for use in logs and test failure
// messages. It does not attempt to resolve the symbol's name.
func (s Symbol) String() string {
	return uitoa(s.id)
}

// IsZero returns true for the zero-value Symbol.
func (s Symbol) IsZero() bool {
	return s.id == 0
}

var registry = struct {
	mu       sync.Mutex
	nextID   uint64
	byName   map[string]uint64
	nameByID map[uint64]string
}{
	nextID:   1,
	byName:   map[string]uint64{},
	nameByID: map[uint64]string{},
}

// New assigns and returns a brand new, anonymous Symbol. Every call returns a
// Symbol distinct from every other Symbol ever returned by New or WithName,
// and it is never assigned a name: Name always returns ("", false) for it.
func New() Symbol {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	id := registry.nextID
	registry.nextID++
	return Symbol{id: id}
}

// WithName returns the Symbol associated with the given name, assigning it a
// fresh ID the first time it's seen. Subsequent calls with an equal name
// return an equal Symbol. Names, once assigned, never change.
func WithName(name string) Symbol {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if id, ok := registry.byName[name]; ok {
		return Symbol{id: id}
	}

	id := registry.nextID
	registry.nextID++
	registry.byName[name] = id
	registry.nameByID[id] = name
	return Symbol{id: id}
}

// Name returns the name which was assigned to this Symbol via WithName, if
// any. Symbols produced by New never have a name.
func (s Symbol) Name() (string, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	name, ok := registry.nameByID[s.id]
	return name, ok
}

func uitoa(u uint64) string {
	if u == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}
