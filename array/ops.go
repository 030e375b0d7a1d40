package array

import (
	"strings"

	"github.com/deepnoodle-ai/scrvar/key"
	"github.com/deepnoodle-ai/scrvar/value"
)

// Adopt returns a handle that takes over a reference the caller already
// owns, such as the one Pop hands back for an object value. It does not add
// a reference.
func Adopt(s Store, v value.Value) Array {
	id, _ := v.AsObject()
	return Array{store: s, id: id}
}

func (a Array) pack(v value.Value) (value.Type, uint64) {
	if text, ok := v.AsString(); ok {
		return value.STRING, uint64(a.store.InternString(text))
	}
	return v.Type(), v.Raw()
}

func (a Array) unpack(t value.Type, raw uint64) value.Value {
	v := value.FromRaw(t, raw)
	if t == value.STRING {
		text, _ := a.store.ResolveString(key.ID(raw))
		v = v.WithText(raw, text)
	}
	return v
}

func (a Array) read(slot uint32) value.Value {
	return a.unpack(a.store.ReadSlot(slot))
}

// write stores v in slot. The incoming value gains its reference before the
// old payload loses one, so overwriting a slot with the node it already
// holds never frees that node.
func (a Array) write(slot uint32, v value.Value) {
	t, raw := a.pack(v)
	oldType, oldRaw := a.store.ReadSlot(slot)
	a.store.AddRef(t, raw)
	a.store.RemoveRef(oldType, oldRaw)
	a.store.WriteSlot(slot, t, raw)
}

// Size returns the number of elements. An element set to none still
// counts until it is erased, so Push and Pop stay paired for every value.
func (a Array) Size() int {
	if a.id == 0 {
		return 0
	}
	return int(a.store.NodeSize(a.id))
}

// find returns the slot stored under k. Lookups never intern names.
func (a Array) find(k key.Key) (uint32, bool) {
	if a.id == 0 {
		return 0, false
	}
	id, ok := key.Find(k, a.store)
	if !ok {
		return 0, false
	}
	return a.store.FindChild(a.id, id)
}

// Get returns the value stored under k, or none if there is none. An object
// value is borrowed: it stays valid while the slot still refers to it.
func (a Array) Get(k key.Key) value.Value {
	slot, ok := a.find(k)
	if !ok {
		return value.None
	}
	return a.read(slot)
}

func (a Array) GetIndex(i int) value.Value {
	return a.Get(key.Index(i))
}

func (a Array) GetName(name string) value.Value {
	return a.Get(key.Name(name))
}

// GetValue looks up a key given as a script value: an int is an index and a
// string is a name. Any other key type yields none.
func (a Array) GetValue(k value.Value) value.Value {
	if kk, ok := keyOf(k); ok {
		return a.Get(kk)
	}
	return value.None
}

// Has reports whether k holds a value.
func (a Array) Has(k key.Key) bool {
	slot, ok := a.find(k)
	if !ok {
		return false
	}
	t, _ := a.store.ReadSlot(slot)
	return t != value.NONE
}

// Set stores v under k, creating the slot if needed.
func (a Array) Set(k key.Key, v value.Value) {
	if a.id == 0 {
		return
	}
	slot := a.store.CreateOrGetChild(a.id, key.Encode(k, a.store))
	a.write(slot, v)
}

func (a Array) SetIndex(i int, v value.Value) {
	a.Set(key.Index(i), v)
}

func (a Array) SetName(name string, v value.Value) {
	a.Set(key.Name(name), v)
}

// SetValue stores v under a key given as a script value. Keys that are
// neither int nor string are ignored.
func (a Array) SetValue(k value.Value, v value.Value) {
	if kk, ok := keyOf(k); ok {
		a.Set(kk, v)
	}
}

// Push appends v at index Size() and returns the new size.
func (a Array) Push(v value.Value) int {
	if a.id == 0 {
		return 0
	}
	a.Set(key.Index(a.Size()), v)
	return a.Size()
}

// Pop removes the element at index Size()-1 and returns it. An object value
// comes back owning the reference its slot held; pass it to Adopt to manage
// it. Popping an empty array returns none.
func (a Array) Pop() value.Value {
	n := a.Size()
	if n == 0 {
		return value.None
	}
	last := key.Index(n - 1)
	v := a.Get(last)
	t, raw := a.pack(v)
	a.store.AddRef(t, raw)
	a.Erase(last)
	return v
}

// PopArray pops the last element when it is an object and returns a handle
// that owns the popped reference. When the array is empty or the last
// element is not an object, it returns false and removes nothing.
func (a Array) PopArray() (Array, bool) {
	n := a.Size()
	if n == 0 {
		return Array{}, false
	}
	if _, ok := a.Get(key.Index(n - 1)).AsObject(); !ok {
		return Array{}, false
	}
	return Adopt(a.store, a.Pop()), true
}

// Erase removes the slot stored under k. Erasing an absent key does
// nothing.
func (a Array) Erase(k key.Key) {
	slot, ok := a.find(k)
	if !ok {
		return
	}
	a.store.RemoveChild(a.id, slot)
}

func (a Array) EraseIndex(i int) {
	a.Erase(key.Index(i))
}

func (a Array) EraseName(name string) {
	a.Erase(key.Name(name))
}

// Keys returns the keys of every element in insertion order, as int values
// for indices and string values for names. The result is a snapshot.
func (a Array) Keys() []value.Value {
	var result []value.Value
	a.walk(func(k key.Key, _ uint32) {
		if k.IsName() {
			result = append(result, value.String(k.Str()))
		} else {
			result = append(result, value.Int(int64(k.Int())))
		}
	})
	return result
}

// Each calls fn for every element in insertion order until fn returns
// false. The element set is captured before the first call, so fn may
// modify the array; elements it erases are skipped.
func (a Array) Each(fn func(k key.Key, v value.Value) bool) {
	var ks []key.Key
	a.walk(func(k key.Key, _ uint32) {
		ks = append(ks, k)
	})
	for _, k := range ks {
		if !a.Has(k) {
			continue
		}
		if !fn(k, a.Get(k)) {
			return
		}
	}
}

func (a Array) walk(fn func(k key.Key, slot uint32)) {
	if a.id == 0 {
		return
	}
	for c := a.store.FirstChild(a.id); c != 0; c = a.store.NextSibling(c) {
		if t, _ := a.store.ReadSlot(c); t == value.NONE {
			continue
		}
		fn(key.Decode(a.store.SlotKey(c), a.store), c)
	}
}

// Inspect renders the array as {key: value, ...} in insertion order.
// Nested objects are expanded; a node already being rendered prints as
// {...}.
func (a Array) Inspect() string {
	var b strings.Builder
	a.inspect(&b, map[uint32]bool{})
	return b.String()
}

func (a Array) inspect(b *strings.Builder, path map[uint32]bool) {
	if a.id == 0 {
		b.WriteString("none")
		return
	}
	path[a.id] = true
	defer delete(path, a.id)

	b.WriteString("{")
	first := true
	a.walk(func(k key.Key, slot uint32) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k.String())
		b.WriteString(": ")
		v := a.read(slot)
		if id, ok := v.AsObject(); ok {
			if path[id] {
				b.WriteString("{...}")
				return
			}
			Array{store: a.store, id: id}.inspect(b, path)
			return
		}
		b.WriteString(v.Inspect())
	})
	b.WriteString("}")
}

func keyOf(k value.Value) (key.Key, bool) {
	if n, ok := k.AsInt(); ok {
		return key.Index(int(n)), true
	}
	if s, ok := k.AsString(); ok {
		return key.Name(s), true
	}
	return key.Key{}, false
}
