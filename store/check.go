package store

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Check sweeps the whole arena and reports every structural inconsistency
// it finds: broken sibling links, children pointing at the wrong parent, a
// child index that disagrees with the chain, wrong sizes, orphaned
// children and a corrupt free list. It returns nil for a healthy store.
func (s *Store) Check() error {
	var result *multierror.Error
	seen := make([]bool, len(s.slots))

	for id := 1; id < len(s.slots); id++ {
		n := &s.slots[id]
		if !n.inUse || !n.isNode {
			continue
		}
		nid := uint32(id)
		if n.refs <= 0 {
			result = multierror.Append(result, fmt.Errorf("node %d: live with %d refs", nid, n.refs))
		}
		var prev uint32
		var count int
		for c := n.first; c != 0; c = s.slots[c].next {
			if int(c) >= len(s.slots) {
				result = multierror.Append(result, fmt.Errorf("node %d: chain points past the arena at %d", nid, c))
				break
			}
			cs := &s.slots[c]
			if seen[c] {
				result = multierror.Append(result, fmt.Errorf("node %d: slot %d linked twice", nid, c))
				break
			}
			seen[c] = true
			if !cs.inUse || cs.isNode {
				result = multierror.Append(result, fmt.Errorf("node %d: chain reaches non-child slot %d", nid, c))
				break
			}
			if cs.parent != nid {
				result = multierror.Append(result, fmt.Errorf("node %d: child %d claims parent %d", nid, c, cs.parent))
			}
			if cs.prev != prev {
				result = multierror.Append(result, fmt.Errorf("node %d: child %d has prev %d, want %d", nid, c, cs.prev, prev))
			}
			if got, ok := n.index[cs.key]; !ok || got != c {
				result = multierror.Append(result, fmt.Errorf("node %d: index for key %#x is %d, chain has %d", nid, cs.key, got, c))
			}
			count++
			prev = c
		}
		if n.last != prev {
			result = multierror.Append(result, fmt.Errorf("node %d: last is %d, chain ends at %d", nid, n.last, prev))
		}
		if len(n.index) != count {
			result = multierror.Append(result, fmt.Errorf("node %d: index has %d keys, chain has %d slots", nid, len(n.index), count))
		}
		if int(n.size) != count {
			result = multierror.Append(result, fmt.Errorf("node %d: size %d, chain has %d", nid, n.size, count))
		}
	}

	used := 0
	for id := 1; id < len(s.slots); id++ {
		cs := &s.slots[id]
		if !cs.inUse {
			continue
		}
		used++
		if !cs.isNode && !seen[id] {
			result = multierror.Append(result, fmt.Errorf("slot %d: orphaned child of %d", id, cs.parent))
		}
	}
	if used != s.used {
		result = multierror.Append(result, fmt.Errorf("arena: %d slots in use, counter says %d", used, s.used))
	}

	onFree := make(map[uint32]bool, len(s.free))
	for _, id := range s.free {
		switch {
		case onFree[id]:
			result = multierror.Append(result, fmt.Errorf("free list: slot %d listed twice", id))
		case s.slots[id].inUse:
			result = multierror.Append(result, fmt.Errorf("free list: slot %d is in use", id))
		}
		onFree[id] = true
	}

	return result.ErrorOrNil()
}
