// Package key implements the single encoded key space shared by string keys
// and integer indices in the variable store.
//
// String keys are interned string ids and always fall below StringLimit.
// Indices are shifted into the upper half of a 24-bit space:
//
//	encode(i) = (i + IndexBias) & Mask
//	decode(k) = (k - IndexBias) & Mask
//
// Since 2*IndexBias == Mask+1 the transform is its own inverse, and every
// index in [0, MaxIndex] lands in [IndexBias, Mask], above every string id.
package key

import (
	"fmt"
	"strconv"

	"github.com/deepnoodle-ai/scrvar/errz"
)

// ID is an encoded key: either an interned string id or a shifted index.
type ID uint32

const (
	// StringLimit bounds interned string ids from above.
	StringLimit ID = 0x40000

	// IndexBias is added to an index to move it into the index range.
	IndexBias ID = 0x800000

	// Mask keeps encoded keys within 24 bits.
	Mask ID = 0xFFFFFF

	// MaxIndex is the largest representable index.
	MaxIndex = int(IndexBias - 1)
)

// Interner maps strings to key ids.
type Interner interface {
	InternString(s string) ID
}

// Finder looks up strings that are already interned.
type Finder interface {
	LookupString(s string) (ID, bool)
}

// Resolver maps key ids back to strings.
type Resolver interface {
	ResolveString(id ID) (string, bool)
}

// EncodeIndex returns the key id for index i. An index outside
// [0, MaxIndex] is a caller error against a fixed system limit, so it aborts
// via errz.Fatal rather than returning an error.
func EncodeIndex(i int) ID {
	if i < 0 || i > MaxIndex {
		errz.Fatal(errz.InvalidKeyf("index %d outside [0, %d]", i, MaxIndex))
	}
	return (ID(i) + IndexBias) & Mask
}

// DecodeIndex is the inverse of EncodeIndex. It is only meaningful for ids
// produced by EncodeIndex.
func DecodeIndex(id ID) int {
	return int((id - IndexBias) & Mask)
}

// IsIndexID reports whether id lies in the index range.
func IsIndexID(id ID) bool {
	return id >= IndexBias && id <= Mask
}

// EncodeString interns s and returns its key id.
func EncodeString(in Interner, s string) ID {
	return in.InternString(s)
}

// DecodeString resolves a string key id. Ids at or above StringLimit are
// never strings.
func DecodeString(r Resolver, id ID) (string, bool) {
	if id >= StringLimit {
		return "", false
	}
	return r.ResolveString(id)
}

type kind uint8

const (
	indexKind kind = iota
	nameKind
)

// Key is a public key: an integer index or a string name. It is resolved to
// an ID once, at the call boundary.
type Key struct {
	kind  kind
	index int
	name  string
}

// Index returns a key addressing integer index i.
func Index(i int) Key {
	return Key{kind: indexKind, index: i}
}

// Name returns a key addressing string key s.
func Name(s string) Key {
	return Key{kind: nameKind, name: s}
}

func (k Key) IsIndex() bool {
	return k.kind == indexKind
}

func (k Key) IsName() bool {
	return k.kind == nameKind
}

// Int returns the index of an index key, or 0 for a name key.
func (k Key) Int() int {
	return k.index
}

// Str returns the name of a name key, or "" for an index key.
func (k Key) Str() string {
	return k.name
}

func (k Key) Equals(other Key) bool {
	return k == other
}

func (k Key) String() string {
	if k.kind == nameKind {
		return strconv.Quote(k.name)
	}
	return strconv.Itoa(k.index)
}

func (k Key) GoString() string {
	if k.kind == nameKind {
		return fmt.Sprintf("key.Name(%q)", k.name)
	}
	return fmt.Sprintf("key.Index(%d)", k.index)
}

// Encode converts k to its key id, interning names through in.
func Encode(k Key, in Interner) ID {
	if k.kind == nameKind {
		return EncodeString(in, k.name)
	}
	return EncodeIndex(k.index)
}

// Find returns the key id of k without interning. A name that was never
// interned has no id and cannot be stored under anything.
func Find(k Key, f Finder) (ID, bool) {
	if k.kind == nameKind {
		return f.LookupString(k.name)
	}
	return EncodeIndex(k.index), true
}

// Decode converts a key id back to a Key. An id below StringLimit that
// resolves to a string is a name; anything else decodes as an index.
func Decode(id ID, r Resolver) Key {
	if s, ok := DecodeString(r, id); ok {
		return Name(s)
	}
	return Index(DecodeIndex(id))
}
