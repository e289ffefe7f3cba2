package scene

import (
	"errors"
	"fmt"
)

// ErrExpiredHandle is returned for a handle whose slot was removed or reused.
var ErrExpiredHandle = errors.New("expired handle")

// Handle refers to a value stored in an Arena. The zero Handle is never valid.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

func (h Handle[T]) IsZero() bool {
	return h.generation == 0
}

func (h Handle[T]) String() string {
	return fmt.Sprintf("%d#%d", h.index, h.generation)
}

type slot[T any] struct {
	value      *T
	generation uint32
}

// Arena stores values behind generation checked handles. Removed slots go
// to a free list and are reused with a bumped generation, so stale handles
// are detected instead of aliasing the new value.
type Arena[T any] struct {
	slots    []slot[T]
	freeList []uint32
	live     int
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

func (a *Arena[T]) Insert(v *T) Handle[T] {
	var idx uint32
	if n := len(a.freeList); n > 0 {
		idx = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.generation++
	s.value = v
	a.live++
	return Handle[T]{index: idx, generation: s.generation}
}

func (a *Arena[T]) Get(h Handle[T]) (*T, error) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, ErrExpiredHandle
	}
	s := a.slots[h.index]
	if s.generation != h.generation || s.value == nil {
		return nil, ErrExpiredHandle
	}
	return s.value, nil
}

func (a *Arena[T]) Contains(h Handle[T]) bool {
	_, err := a.Get(h)
	return err == nil
}

// Remove frees the slot of h and returns its value. Removing an expired
// handle returns ErrExpiredHandle and changes nothing.
func (a *Arena[T]) Remove(h Handle[T]) (*T, error) {
	v, err := a.Get(h)
	if err != nil {
		return nil, err
	}
	s := &a.slots[h.index]
	s.value = nil
	s.generation++
	a.freeList = append(a.freeList, h.index)
	a.live--
	return v, nil
}

func (a *Arena[T]) Len() int {
	return a.live
}

// Each visits live values in slot order.
func (a *Arena[T]) Each(fn func(h Handle[T], v *T)) {
	for i, s := range a.slots {
		if s.value == nil {
			continue
		}
		fn(Handle[T]{index: uint32(i), generation: s.generation}, s.value)
	}
}
