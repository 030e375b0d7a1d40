package array

import (
	"fmt"
	"testing"

	"github.com/deepnoodle-ai/scrvar/errz"
	"github.com/deepnoodle-ai/scrvar/key"
	"github.com/deepnoodle-ai/scrvar/store"
	"github.com/deepnoodle-ai/scrvar/value"
	"github.com/stretchr/testify/require"
)

// recordingStore wraps a real store and records reference-count calls.
type recordingStore struct {
	*store.Store
	calls []string
}

func (r *recordingStore) AddRef(t value.Type, raw uint64) {
	r.calls = append(r.calls, fmt.Sprintf("add %s %d", t, raw))
	r.Store.AddRef(t, raw)
}

func (r *recordingStore) RemoveRef(t value.Type, raw uint64) {
	r.calls = append(r.calls, fmt.Sprintf("remove %s %d", t, raw))
	r.Store.RemoveRef(t, raw)
}

func strs(vals []value.Value) []string {
	var out []string
	for _, v := range vals {
		out = append(out, v.Inspect())
	}
	return out
}

func TestArrayPushGetPop(t *testing.T) {
	s := store.New()
	a := New(s)
	defer a.Release()

	require.Equal(t, 1, a.Push(value.String("a")))
	require.Equal(t, 2, a.Push(value.String("b")))
	require.Equal(t, 3, a.Push(value.String("c")))
	require.Equal(t, 3, a.Size())
	require.True(t, a.GetIndex(0).Equals(value.String("a")))

	popped := a.Pop()
	require.True(t, popped.Equals(value.String("c")))
	require.Equal(t, 2, a.Size())
	require.True(t, a.GetIndex(2).IsNone())
	require.NoError(t, s.Check())
}

func TestObjectSetKeysErase(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()

	o.SetName("x", value.Int(5))
	o.SetName("y", value.String("hello"))
	require.Equal(t, []string{`"x"`, `"y"`}, strs(o.Keys()))

	o.EraseName("x")
	require.True(t, o.GetName("x").IsNone())
	require.Equal(t, []string{`"y"`}, strs(o.Keys()))
	require.Equal(t, 1, o.Size())
}

func TestCopySurvivesOriginal(t *testing.T) {
	s := store.New()
	a := FromValues(s, []value.Value{value.String("a"), value.String("b"), value.String("c")})
	a.Pop()

	b := a.Clone()
	require.Equal(t, int32(2), s.RefCount(a.ID()))
	a.Release()
	require.True(t, a.IsEmpty())

	require.True(t, b.GetIndex(0).Equals(value.String("a")))
	require.Equal(t, 2, b.Size())
	require.Equal(t, int32(1), s.RefCount(b.ID()))

	id := b.ID()
	b.Release()
	require.False(t, s.IsLive(id))
	require.NoError(t, s.Check())
}

func TestOverwriteCallOrder(t *testing.T) {
	rs := &recordingStore{Store: store.New()}
	o := New(rs)
	defer o.Release()

	o.SetName("x", value.Int(1))
	rs.calls = nil
	o.SetName("x", value.Int(2))

	require.Equal(t, []string{"add int 2", "remove int 1"}, rs.calls)
	require.True(t, o.GetName("x").Equals(value.Int(2)))
}

func TestOverwriteObjectReference(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()

	first := New(s)
	second := New(s)
	o.SetName("child", first.Value())
	firstID := first.ID()
	first.Release()
	require.Equal(t, int32(1), s.RefCount(firstID))

	// Overwriting with a different node releases the old one exactly once
	// and keeps the new one alive.
	o.SetName("child", second.Value())
	require.False(t, s.IsLive(firstID))
	require.Equal(t, int32(2), s.RefCount(second.ID()))

	// Overwriting a slot with the node it already holds must not free it,
	// even when the slot holds the only reference.
	secondID := second.ID()
	second.Release()
	require.Equal(t, int32(1), s.RefCount(secondID))
	o.SetName("child", value.Object(secondID))
	require.True(t, s.IsLive(secondID))
	require.Equal(t, int32(1), s.RefCount(secondID))
	require.NoError(t, s.Check())
}

func TestPushPopDuality(t *testing.T) {
	s := store.New()
	a := FromValues(s, []value.Value{value.Int(1), value.Float(2.5)})
	defer a.Release()

	for _, v := range []value.Value{
		value.Int(7),
		value.Float(-1.25),
		value.String("text"),
		value.Entity(3),
		value.Function(9),
		value.None,
	} {
		before := a.Size()
		a.Push(v)
		r := a.Pop()
		require.Equal(t, before, a.Size())
		require.True(t, r.Equals(v), "pushed %s popped %s", v.Inspect(), r.Inspect())
	}
	require.NoError(t, s.Check())
}

func TestPopObjectTransfersReference(t *testing.T) {
	s := store.New()
	a := New(s)
	defer a.Release()

	inner := New(s)
	inner.SetName("n", value.Int(1))
	a.Push(inner.Value())
	innerID := inner.ID()
	inner.Release()

	popped := Adopt(s, a.Pop())
	require.Equal(t, 0, a.Size())
	require.True(t, s.IsLive(innerID))
	require.True(t, popped.GetName("n").Equals(value.Int(1)))

	popped.Release()
	require.False(t, s.IsLive(innerID))
	require.NoError(t, s.Check())
}

func TestPopEmpty(t *testing.T) {
	s := store.New()
	a := New(s)
	defer a.Release()
	require.True(t, a.Pop().IsNone())
	require.Equal(t, 0, a.Size())
}

func TestIdempotentErase(t *testing.T) {
	s := store.New()
	o := FromMap(s, map[string]value.Value{"b": value.Int(2), "a": value.Int(1)})
	defer o.Release()

	keys := strs(o.Keys())
	o.EraseName("missing")
	o.EraseIndex(40)
	require.Equal(t, 2, o.Size())
	require.Equal(t, keys, strs(o.Keys()))

	o.EraseName("a")
	o.EraseName("a")
	require.Equal(t, 1, o.Size())
	require.NoError(t, s.Check())
}

func TestInsertionOrderedKeys(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()

	o.SetName("zeta", value.Int(1))
	o.SetIndex(5, value.Int(2))
	o.SetName("alpha", value.Int(3))
	o.SetIndex(0, value.Int(4))
	require.Equal(t, []string{`"zeta"`, "5", `"alpha"`, "0"}, strs(o.Keys()))

	// Overwriting keeps the original position.
	o.SetName("zeta", value.Int(9))
	require.Equal(t, []string{`"zeta"`, "5", `"alpha"`, "0"}, strs(o.Keys()))
}

func TestFromMapIsSorted(t *testing.T) {
	s := store.New()
	o := FromMap(s, map[string]value.Value{"y": value.Int(2), "x": value.Int(1), "w": value.Int(0)})
	defer o.Release()
	require.Equal(t, []string{`"w"`, `"x"`, `"y"`}, strs(o.Keys()))
}

func TestMixedKeys(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()

	// The index 0 and the name "0" are different keys.
	o.SetIndex(0, value.String("index"))
	o.SetName("0", value.String("name"))
	require.Equal(t, 2, o.Size())
	require.True(t, o.GetIndex(0).Equals(value.String("index")))
	require.True(t, o.GetName("0").Equals(value.String("name")))
}

func TestGetValueDispatchesOnKeyType(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()

	o.SetValue(value.Int(1), value.String("one"))
	o.SetValue(value.String("k"), value.Int(11))
	o.SetValue(value.Float(1.5), value.Int(99))

	require.True(t, o.GetValue(value.Int(1)).Equals(value.String("one")))
	require.True(t, o.GetValue(value.String("k")).Equals(value.Int(11)))
	require.True(t, o.GetValue(value.Float(1.5)).IsNone())
	require.Equal(t, 2, o.Size())
}

func TestMissingKeyReturnsNone(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()
	require.True(t, o.GetName("nope").IsNone())
	require.True(t, o.GetIndex(3).IsNone())
	require.False(t, o.Has(key.Index(3)))
}

func TestOutOfRangeIndexIsFatal(t *testing.T) {
	s := store.New()
	a := New(s)
	defer a.Release()
	err := errz.Recover(func() { a.SetIndex(key.MaxIndex+1, value.Int(1)) })
	require.ErrorIs(t, err, errz.InvalidKey)
	err = errz.Recover(func() { a.GetIndex(-1) })
	require.ErrorIs(t, err, errz.InvalidKey)

	require.NotPanics(t, func() { a.SetIndex(key.MaxIndex, value.Int(1)) })
	require.True(t, a.GetIndex(key.MaxIndex).Equals(value.Int(1)))
}

func TestEmptyHandle(t *testing.T) {
	var a Array
	require.True(t, a.IsEmpty())
	require.Equal(t, 0, a.Size())
	require.True(t, a.GetName("x").IsNone())
	require.True(t, a.Pop().IsNone())
	require.Equal(t, 0, a.Push(value.Int(1)))
	require.Nil(t, a.Keys())
	require.True(t, a.Value().IsNone())
	require.Equal(t, "none", a.Inspect())
	a.SetName("x", value.Int(1))
	a.Erase(key.Name("x"))
	a.Release()
	a.Release()
}

func TestMoveTransfersOwnership(t *testing.T) {
	s := store.New()
	a := New(s)
	id := a.ID()

	b := a.Move()
	require.True(t, a.IsEmpty())
	require.Equal(t, id, b.ID())
	require.Equal(t, int32(1), s.RefCount(id))

	// Writes through the moved-out handle are no-ops.
	a.SetName("x", value.Int(1))
	require.Equal(t, 0, b.Size())

	a.Release()
	require.True(t, s.IsLive(id))
	b.Release()
	require.False(t, s.IsLive(id))
}

func TestAssign(t *testing.T) {
	s := store.New()
	a := New(s)
	b := New(s)
	aID, bID := a.ID(), b.ID()

	b.Assign(&a)
	require.Equal(t, aID, b.ID())
	require.False(t, s.IsLive(bID))
	require.Equal(t, int32(2), s.RefCount(aID))

	// Self-assignment keeps the count.
	b.Assign(&b)
	require.Equal(t, int32(2), s.RefCount(aID))

	a.Release()
	b.Release()
	require.False(t, s.IsLive(aID))
	require.NoError(t, s.Check())
}

func TestAssignSameNodeFromOtherHandle(t *testing.T) {
	s := store.New()
	a := New(s)
	b := a.Clone()
	a.Assign(&b)
	require.Equal(t, int32(2), s.RefCount(a.ID()))
	a.Release()
	b.Release()
	require.Equal(t, 0, s.Stats().Nodes)
}

func TestMoveFrom(t *testing.T) {
	s := store.New()
	a := New(s)
	b := New(s)
	aID, bID := a.ID(), b.ID()

	b.MoveFrom(&a)
	require.True(t, a.IsEmpty())
	require.Equal(t, aID, b.ID())
	require.False(t, s.IsLive(bID))
	require.Equal(t, int32(1), s.RefCount(aID))

	b.MoveFrom(&b)
	require.Equal(t, int32(1), s.RefCount(aID))
	b.Release()
	require.Equal(t, 0, s.Stats().Nodes)
}

func TestWrapAndFromValue(t *testing.T) {
	s := store.New()
	a := New(s)
	a.SetName("k", value.Int(1))

	w := Wrap(s, a.ID())
	require.Equal(t, int32(2), s.RefCount(a.ID()))
	v := FromValue(s, a.Value())
	require.Equal(t, int32(3), s.RefCount(a.ID()))
	require.True(t, v.GetName("k").Equals(value.Int(1)))

	require.True(t, Wrap(s, 0).IsEmpty())
	require.True(t, FromValue(s, value.Int(1)).IsEmpty())

	w.Release()
	v.Release()
	a.Release()
	require.Equal(t, 0, s.Stats().Nodes)
}

func TestNestedLifetime(t *testing.T) {
	s := store.New()
	root := New(s)
	child := New(s)
	child.Push(value.String("leaf"))
	root.SetName("child", child.Value())
	child.Release()

	got := FromValue(s, root.GetName("child"))
	require.True(t, got.GetIndex(0).Equals(value.String("leaf")))
	got.Release()

	root.Release()
	st := s.Stats()
	require.Equal(t, 0, st.Nodes)
	require.Equal(t, 0, st.Children)
	require.NoError(t, s.Check())
}

func TestSelfReferenceLeaks(t *testing.T) {
	s := store.New()
	a := New(s)
	id := a.ID()
	a.SetName("self", a.Value())
	require.Equal(t, "{\"self\": {...}}", a.Inspect())
	a.Release()
	require.True(t, s.IsLive(id))
}

func TestEach(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()
	o.SetName("a", value.Int(1))
	o.SetName("b", value.Int(2))
	o.SetName("c", value.Int(3))

	var seen []string
	o.Each(func(k key.Key, v value.Value) bool {
		seen = append(seen, k.String()+"="+v.Inspect())
		if k.Str() == "a" {
			o.EraseName("b")
		}
		return k.Str() != "c"
	})
	require.Equal(t, []string{`"a"=1`, `"c"=3`}, seen)
}

func TestEntry(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()

	e := o.Entry(key.Name("score"))
	require.False(t, e.Exists())
	require.Equal(t, 0, o.Size())
	e.Set(value.Int(10))
	require.True(t, e.Exists())
	n, ok := e.Get().AsInt()
	require.True(t, ok)
	require.Equal(t, int64(10), n)
	require.Equal(t, "score", e.Key().Str())
}

func TestInspect(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()
	list := FromValues(s, []value.Value{value.Int(1), value.Float(1.5)})
	o.SetName("name", value.String("bob"))
	o.SetName("list", list.Value())
	list.Release()
	require.Equal(t, `{"name": "bob", "list": {0: 1, 1: 1.5}}`, o.Inspect())
}

func TestSetNoneKeepsElement(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()
	o.SetName("x", value.Int(1))
	o.SetName("x", value.None)
	require.Equal(t, 1, o.Size())
	require.Empty(t, o.Keys())
	require.False(t, o.Has(key.Name("x")))
	require.NoError(t, s.Check())
}

func TestPushNoneThenPop(t *testing.T) {
	s := store.New()
	a := FromValues(s, []value.Value{value.Int(1), value.Int(2)})
	defer a.Release()

	require.Equal(t, 3, a.Push(value.None))
	require.True(t, a.Pop().IsNone())
	require.Equal(t, 2, a.Size())
	n, _ := a.GetIndex(1).AsInt()
	require.Equal(t, int64(2), n)
	require.Equal(t, []string{"0", "1"}, strs(a.Keys()))
	require.NoError(t, s.Check())
}

func TestLookupMissDoesNotInternNames(t *testing.T) {
	s := store.New()
	o := New(s)
	defer o.Release()
	o.SetName("present", value.Int(1))
	before := s.Stats().Strings

	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("missing-%d", i)
		require.True(t, o.GetName(name).IsNone())
		require.False(t, o.Has(key.Name(name)))
		o.EraseName(name)
		require.False(t, o.Entry(key.Name(name)).Exists())
	}
	require.Equal(t, before, s.Stats().Strings)
	require.Equal(t, 1, o.Size())
}

func TestPopArray(t *testing.T) {
	s := store.New()
	a := New(s)
	defer a.Release()

	_, ok := a.PopArray()
	require.False(t, ok)

	inner := FromValues(s, []value.Value{value.String("x")})
	a.Push(inner.Value())
	a.Push(value.Int(5))
	inner.Release()

	// The last element is not an object, so nothing is popped.
	_, ok = a.PopArray()
	require.False(t, ok)
	require.Equal(t, 2, a.Size())

	a.Pop()
	popped, ok := a.PopArray()
	require.True(t, ok)
	require.Equal(t, 0, a.Size())
	require.Equal(t, int32(1), s.RefCount(popped.ID()))
	require.True(t, popped.GetIndex(0).Equals(value.String("x")))

	id := popped.ID()
	popped.Release()
	require.False(t, s.IsLive(id))
	require.NoError(t, s.Check())
}
