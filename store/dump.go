package store

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/scrvar/key"
	"github.com/deepnoodle-ai/scrvar/value"
	"github.com/fatih/color"
)

var (
	nodeColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	keyColor   = color.New(color.FgYellow).SprintFunc()
	valueColor = color.New(color.FgGreen).SprintFunc()
	mutedColor = color.New(color.FgHiBlack).SprintFunc()
)

// Dump writes an indented tree of node and everything reachable from it.
// Nodes already on the current path print as a cycle marker instead of
// being expanded again.
func (s *Store) Dump(w io.Writer, node uint32) error {
	d := dumper{s: s, w: w, path: map[uint32]bool{}}
	d.node(node, 0)
	return d.err
}

type dumper struct {
	s    *Store
	w    io.Writer
	path map[uint32]bool
	err  error
}

func (d *dumper) printf(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (d *dumper) header(node uint32) string {
	n := &d.s.slots[node]
	return fmt.Sprintf("%s %s", nodeColor(fmt.Sprintf("object#%d", node)),
		mutedColor(fmt.Sprintf("(refs=%d size=%d)", n.refs, n.size)))
}

func (d *dumper) node(node uint32, depth int) {
	if !d.s.IsLive(node) {
		d.printf(depth, "%s", mutedColor(fmt.Sprintf("object#%d (freed)", node)))
		return
	}
	if depth == 0 {
		d.printf(depth, "%s", d.header(node))
	}
	d.path[node] = true
	defer delete(d.path, node)

	for c := d.s.slots[node].first; c != 0; c = d.s.slots[c].next {
		cs := &d.s.slots[c]
		if cs.typ == value.NONE {
			continue
		}
		label := keyColor(d.keyLabel(cs.key))
		if value.IsRefType(cs.typ) {
			target := uint32(cs.raw)
			if d.path[target] {
				d.printf(depth+1, "%s: %s %s", label, nodeColor(fmt.Sprintf("object#%d", target)), mutedColor("(cycle)"))
				continue
			}
			d.printf(depth+1, "%s: %s", label, d.header(target))
			d.node(target, depth+1)
			continue
		}
		d.printf(depth+1, "%s: %s", label, valueColor(d.inspect(cs.typ, cs.raw)))
	}
}

func (d *dumper) keyLabel(id key.ID) string {
	k := key.Decode(id, d.s)
	if k.IsName() {
		return strconv.Quote(k.Str())
	}
	return strconv.Itoa(k.Int())
}

func (d *dumper) inspect(t value.Type, raw uint64) string {
	if t == value.STRING {
		str, _ := d.s.ResolveString(key.ID(raw))
		return strconv.Quote(str)
	}
	return value.FromRaw(t, raw).Inspect()
}
