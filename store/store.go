// Package store implements the variable store: a process-wide table of
// slots that holds every composite node and every child value.
//
// Slots live in a dense arena addressed by uint32 id; id 0 is the null id.
// Freed ids go on a free list and are handed out again before the arena
// grows. A node slot owns a sibling chain of child slots in insertion order
// plus an index from encoded key to child slot. Nodes are reference counted
// and freed when the count reaches zero, at which point every child is
// released as well.
//
// The store is not safe for concurrent use. It is meant to be owned by one
// control thread and passed explicitly to every handle that uses it.
package store

import (
	"github.com/deepnoodle-ai/scrvar/errz"
	"github.com/deepnoodle-ai/scrvar/key"
	"github.com/deepnoodle-ai/scrvar/value"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

type slot struct {
	inUse bool
	typ   value.Type
	raw   uint64

	// Child linkage.
	key    key.ID
	parent uint32
	prev   uint32
	next   uint32

	// Node state, valid when isNode is set.
	isNode bool
	refs   int32
	first  uint32
	last   uint32
	size   uint32
	index  map[key.ID]uint32
}

// Store is an arena of reference-counted nodes and their child slots.
type Store struct {
	id       uuid.UUID
	log      zerolog.Logger
	capacity int

	slots []slot
	free  []uint32
	used  int

	strings   []string
	stringIDs map[string]key.ID
}

// Stats summarizes the store's occupancy.
type Stats struct {
	Nodes    int `json:"nodes"`
	Children int `json:"children"`
	Free     int `json:"free"`
	Strings  int `json:"strings"`
	Capacity int `json:"capacity"`
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		log:       zerolog.Nop(),
		capacity:  DefaultCapacity,
		slots:     make([]slot, 1),
		strings:   []string{""},
		stringIDs: map[string]key.ID{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == uuid.Nil {
		s.id = uuid.Must(uuid.NewV4())
	}
	s.log = s.log.With().Str("store", s.id.String()).Logger()
	return s
}

// ID returns the store's instance id.
func (s *Store) ID() uuid.UUID {
	return s.id
}

func (s *Store) alloc() uint32 {
	if s.used >= s.capacity {
		errz.Fatal(errz.StoreExhaustedf("all %d slots in use", s.capacity))
	}
	s.used++
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[id] = slot{inUse: true, typ: value.NONE}
		return id
	}
	s.slots = append(s.slots, slot{inUse: true, typ: value.NONE})
	return uint32(len(s.slots) - 1)
}

func (s *Store) release(id uint32) {
	s.slots[id] = slot{}
	s.free = append(s.free, id)
	s.used--
}

func (s *Store) node(id uint32) *slot {
	if id == 0 || int(id) >= len(s.slots) || !s.slots[id].inUse || !s.slots[id].isNode {
		errz.Fatal(errz.ReferenceMisusef("node %d is not live", id))
	}
	return &s.slots[id]
}

func (s *Store) child(id uint32) *slot {
	if id == 0 || int(id) >= len(s.slots) || !s.slots[id].inUse || s.slots[id].isNode {
		errz.Fatal(errz.ReferenceMisusef("slot %d is not a live child", id))
	}
	return &s.slots[id]
}

// AllocNode allocates a new empty node. Its single reference belongs to the
// caller.
func (s *Store) AllocNode() uint32 {
	id := s.alloc()
	n := &s.slots[id]
	n.isNode = true
	n.typ = value.OBJECT
	n.refs = 1
	s.log.Debug().Uint32("node", id).Msg("node allocated")
	return id
}

// AddRef adds a reference to the node an object payload points at. Other
// payloads are not reference counted and are ignored.
func (s *Store) AddRef(t value.Type, raw uint64) {
	if !value.IsRefType(t) {
		return
	}
	id := uint32(raw)
	n := s.node(id)
	n.refs++
	s.log.Debug().Uint32("node", id).Int32("refs", n.refs).Msg("ref added")
}

// RemoveRef drops a reference from the node an object payload points at and
// frees the node when none remain.
func (s *Store) RemoveRef(t value.Type, raw uint64) {
	if !value.IsRefType(t) {
		return
	}
	id := uint32(raw)
	n := s.node(id)
	if n.refs <= 0 {
		errz.Fatal(errz.ReferenceMisusef("node %d released with %d refs", id, n.refs))
	}
	n.refs--
	s.log.Debug().Uint32("node", id).Int32("refs", n.refs).Msg("ref removed")
	if n.refs == 0 {
		s.freeNode(id)
	}
}

// freeNode releases a node whose count reached zero, cascading into nodes
// that lose their last reference along the way. Cycles keep each other
// alive and are never reached here.
func (s *Store) freeNode(id uint32) {
	pending := []uint32{id}
	for len(pending) > 0 {
		nid := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		for c := s.slots[nid].first; c != 0; {
			cs := s.slots[c]
			s.release(c)
			if value.IsRefType(cs.typ) {
				target := uint32(cs.raw)
				tn := s.node(target)
				if tn.refs <= 0 {
					errz.Fatal(errz.ReferenceMisusef("node %d released with %d refs", target, tn.refs))
				}
				tn.refs--
				s.log.Debug().Uint32("node", target).Int32("refs", tn.refs).Msg("ref removed")
				if tn.refs == 0 {
					pending = append(pending, target)
				}
			}
			c = cs.next
		}
		s.release(nid)
		s.log.Debug().Uint32("node", nid).Msg("node freed")
	}
}

// RefCount returns the reference count of a live node, or 0.
func (s *Store) RefCount(node uint32) int32 {
	if !s.IsLive(node) {
		return 0
	}
	return s.slots[node].refs
}

// IsLive reports whether node is an allocated node.
func (s *Store) IsLive(node uint32) bool {
	return node != 0 && int(node) < len(s.slots) && s.slots[node].inUse && s.slots[node].isNode
}

// FindChild looks up the child of parent stored under k without creating
// it.
func (s *Store) FindChild(parent uint32, k key.ID) (uint32, bool) {
	id, ok := s.node(parent).index[k]
	return id, ok
}

// CreateOrGetChild returns the child of parent stored under k, appending a
// new none-typed slot to the end of the sibling chain if there is none.
func (s *Store) CreateOrGetChild(parent uint32, k key.ID) uint32 {
	if id, ok := s.FindChild(parent, k); ok {
		return id
	}
	id := s.alloc()
	n := &s.slots[parent]
	c := &s.slots[id]
	c.key = k
	c.parent = parent
	c.prev = n.last
	if n.last != 0 {
		s.slots[n.last].next = id
	} else {
		n.first = id
	}
	n.last = id
	if n.index == nil {
		n.index = map[key.ID]uint32{}
	}
	n.index[k] = id
	n.size++
	return id
}

// RemoveChild unlinks a child slot from parent, frees it and drops the
// reference its payload held.
func (s *Store) RemoveChild(parent uint32, id uint32) {
	n := s.node(parent)
	c := s.child(id)
	if c.parent != parent {
		errz.Fatal(errz.ReferenceMisusef("slot %d does not belong to node %d", id, parent))
	}
	if c.prev != 0 {
		s.slots[c.prev].next = c.next
	} else {
		n.first = c.next
	}
	if c.next != 0 {
		s.slots[c.next].prev = c.prev
	} else {
		n.last = c.prev
	}
	delete(n.index, c.key)
	n.size--
	t, raw := c.typ, c.raw
	s.release(id)
	s.RemoveRef(t, raw)
}

// ReadSlot returns a child slot's tag and payload.
func (s *Store) ReadSlot(id uint32) (value.Type, uint64) {
	c := s.child(id)
	return c.typ, c.raw
}

// WriteSlot overwrites a child slot's tag and payload. Reference counts are
// the caller's business.
func (s *Store) WriteSlot(id uint32, t value.Type, raw uint64) {
	if t == "" {
		t = value.NONE
	}
	c := s.child(id)
	c.typ = t
	c.raw = raw
}

// NodeSize returns the number of children linked under parent. A child
// holding none still counts until it is removed.
func (s *Store) NodeSize(parent uint32) uint32 {
	return s.node(parent).size
}

// FirstChild returns the head of parent's sibling chain, or 0.
func (s *Store) FirstChild(parent uint32) uint32 {
	return s.node(parent).first
}

// NextSibling returns the slot after id in its chain, or 0.
func (s *Store) NextSibling(id uint32) uint32 {
	return s.child(id).next
}

// SlotKey returns the encoded key a child slot was created under.
func (s *Store) SlotKey(id uint32) key.ID {
	return s.child(id).key
}

// InternString returns the id of s, adding it to the string table if
// needed. Interned strings live as long as the store.
func (s *Store) InternString(str string) key.ID {
	if id, ok := s.stringIDs[str]; ok {
		return id
	}
	id := key.ID(len(s.strings))
	if id >= key.StringLimit {
		errz.Fatal(errz.StoreExhaustedf("string table full at %d entries", len(s.strings)-1))
	}
	s.strings = append(s.strings, str)
	s.stringIDs[str] = id
	return id
}

// LookupString returns the id of str if it has been interned. It never
// adds to the string table.
func (s *Store) LookupString(str string) (key.ID, bool) {
	id, ok := s.stringIDs[str]
	return id, ok
}

// ResolveString returns the string interned under id.
func (s *Store) ResolveString(id key.ID) (string, bool) {
	if id == 0 || int(id) >= len(s.strings) {
		return "", false
	}
	return s.strings[id], true
}

// Stats returns the store's current occupancy.
func (s *Store) Stats() Stats {
	st := Stats{
		Free:     len(s.free),
		Strings:  len(s.strings) - 1,
		Capacity: s.capacity,
	}
	for i := 1; i < len(s.slots); i++ {
		switch {
		case !s.slots[i].inUse:
		case s.slots[i].isNode:
			st.Nodes++
		default:
			st.Children++
		}
	}
	return st
}
