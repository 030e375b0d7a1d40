package array

import (
	"github.com/deepnoodle-ai/scrvar/key"
	"github.com/deepnoodle-ai/scrvar/value"
)

// Entry is one element of an array, addressed by key. It lets a caller
// read and assign an element without repeating the key:
//
//	e := a.Entry(key.Name("score"))
//	n, _ := e.Get().AsInt()
//	e.Set(value.Int(n + 1))
//
// The slot is created on the first Set, not when the Entry is made.
type Entry struct {
	arr Array
	key key.Key
}

// Entry returns the element of a stored under k.
func (a Array) Entry(k key.Key) Entry {
	return Entry{arr: a, key: k}
}

func (e Entry) Key() key.Key {
	return e.key
}

func (e Entry) Get() value.Value {
	return e.arr.Get(e.key)
}

func (e Entry) Set(v value.Value) {
	e.arr.Set(e.key, v)
}

func (e Entry) Exists() bool {
	return e.arr.Has(e.key)
}
