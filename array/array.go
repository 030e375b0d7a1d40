// Package array provides Array, a handle to an array or key/value object
// living in a variable store.
//
// Arrays mix integer indices and string keys freely, create child slots
// lazily on first write, and iterate in insertion order. An Array holds one
// reference to its node. Go has no copy constructors or destructors, so the
// handle's lifetime is explicit:
//
//	a := array.New(s)    // allocates a node; a owns its only reference
//	b := a.Clone()       // b adds a reference
//	c := a.Move()        // c takes a's reference; a is now empty
//	b.Release()          // drops b's reference; b is now empty
//
// Copying an Array struct by assignment does not add a reference; use Clone.
//
// An empty handle (the zero Array, or one that was moved out of or
// released) answers every read with none or zero and ignores every write.
package array

import (
	"sort"

	"github.com/deepnoodle-ai/scrvar/key"
	"github.com/deepnoodle-ai/scrvar/value"
)

// Store is the variable store contract an Array needs. *store.Store
// implements it.
type Store interface {
	key.Interner
	key.Finder
	key.Resolver

	AllocNode() uint32
	AddRef(t value.Type, raw uint64)
	RemoveRef(t value.Type, raw uint64)

	FindChild(parent uint32, k key.ID) (uint32, bool)
	CreateOrGetChild(parent uint32, k key.ID) uint32
	RemoveChild(parent uint32, slot uint32)

	ReadSlot(slot uint32) (value.Type, uint64)
	WriteSlot(slot uint32, t value.Type, raw uint64)

	NodeSize(parent uint32) uint32
	FirstChild(parent uint32) uint32
	NextSibling(slot uint32) uint32
	SlotKey(slot uint32) key.ID
}

// Array is a handle to a composite node.
type Array struct {
	store Store
	id    uint32
}

// New allocates an empty node and returns the handle owning it.
func New(s Store) Array {
	return Array{store: s, id: s.AllocNode()}
}

// Wrap returns a handle to an existing node, adding one reference. Wrapping
// id 0 returns an empty handle.
func Wrap(s Store, id uint32) Array {
	a := Array{store: s, id: id}
	a.addRef()
	return a
}

// FromValue wraps the node an object value refers to. Any other value
// yields an empty handle.
func FromValue(s Store, v value.Value) Array {
	id, ok := v.AsObject()
	if !ok {
		return Array{store: s}
	}
	return Wrap(s, id)
}

// FromValues returns a new array holding values at indices 0..n-1.
func FromValues(s Store, values []value.Value) Array {
	a := New(s)
	for _, v := range values {
		a.Push(v)
	}
	return a
}

// FromMap returns a new object holding the given pairs. Keys are inserted
// in sorted order so iteration order is deterministic.
func FromMap(s Store, values map[string]value.Value) Array {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	a := New(s)
	for _, name := range names {
		a.SetName(name, values[name])
	}
	return a
}

func (a *Array) addRef() {
	if a.id != 0 {
		a.store.AddRef(value.OBJECT, uint64(a.id))
	}
}

func (a *Array) removeRef() {
	if a.id != 0 {
		a.store.RemoveRef(value.OBJECT, uint64(a.id))
	}
}

// Clone returns a new handle to the same node, adding one reference.
func (a *Array) Clone() Array {
	b := Array{store: a.store, id: a.id}
	b.addRef()
	return b
}

// Move returns a handle that takes over a's reference and leaves a empty.
// The reference count does not change.
func (a *Array) Move() Array {
	b := *a
	a.id = 0
	return b
}

// Assign makes a refer to other's node: a adds a reference for the new node,
// then releases the one it held. Assigning a handle to itself does nothing.
func (a *Array) Assign(other *Array) {
	if a == other {
		return
	}
	old := *a
	a.store = other.store
	a.id = other.id
	a.addRef()
	old.removeRef()
}

// MoveFrom makes a take over other's reference, releasing a's own and
// leaving other empty.
func (a *Array) MoveFrom(other *Array) {
	if a == other {
		return
	}
	old := *a
	a.store = other.store
	a.id = other.id
	other.id = 0
	old.removeRef()
}

// Release drops the handle's reference and leaves it empty. Releasing an
// empty handle does nothing.
func (a *Array) Release() {
	a.removeRef()
	a.id = 0
}

// ID returns the node id, or 0 for an empty handle.
func (a Array) ID() uint32 {
	return a.id
}

// IsEmpty reports whether the handle is unbound.
func (a Array) IsEmpty() bool {
	return a.id == 0
}

// Value returns an object value referring to the node. The value does not
// hold a reference of its own; storing it in a slot adds one.
func (a Array) Value() value.Value {
	if a.id == 0 {
		return value.None
	}
	return value.Object(a.id)
}
