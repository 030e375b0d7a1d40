package main

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/scrvar/array"
	"github.com/deepnoodle-ai/scrvar/errz"
	"github.com/deepnoodle-ai/scrvar/store"
	"github.com/deepnoodle-ai/scrvar/value"
	"github.com/spf13/cobra"
)

// ScenarioResult is the outcome of one demo scenario.
type ScenarioResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// DemoReport is the JSON form of the demo command's output.
type DemoReport struct {
	Store     string           `json:"store"`
	Scenarios []ScenarioResult `json:"scenarios"`
	Stats     store.Stats      `json:"stats"`
	Check     string           `json:"check"`
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the array and object walkthrough against a fresh store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newStore()
			report := runDemo(s)
			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			for _, r := range report.Scenarios {
				status := green("ok")
				if !r.OK {
					status = red("FAIL")
				}
				fmt.Fprintf(out, "%-4s %s: %s\n", status, bold(r.Name), r.Detail)
			}
			fmt.Fprintf(out, "nodes=%d children=%d free=%d strings=%d\n",
				report.Stats.Nodes, report.Stats.Children, report.Stats.Free, report.Stats.Strings)
			fmt.Fprintf(out, "check: %s\n", report.Check)
			for _, r := range report.Scenarios {
				if !r.OK {
					return fmt.Errorf("scenario %q failed", r.Name)
				}
			}
			return nil
		},
	}
}

func scenario(name string, fn func() (bool, string)) ScenarioResult {
	var ok bool
	var detail string
	if err := errz.Recover(func() { ok, detail = fn() }); err != nil {
		return ScenarioResult{Name: name, Detail: err.Error()}
	}
	return ScenarioResult{Name: name, OK: ok, Detail: detail}
}

// recordingStore logs reference-count calls made through it.
type recordingStore struct {
	*store.Store
	calls []string
}

func (r *recordingStore) AddRef(t value.Type, raw uint64) {
	r.calls = append(r.calls, fmt.Sprintf("add_ref(%s)", value.FromRaw(t, raw).Inspect()))
	r.Store.AddRef(t, raw)
}

func (r *recordingStore) RemoveRef(t value.Type, raw uint64) {
	r.calls = append(r.calls, fmt.Sprintf("remove_ref(%s)", value.FromRaw(t, raw).Inspect()))
	r.Store.RemoveRef(t, raw)
}

func runDemo(s *store.Store) DemoReport {
	var a array.Array
	var results []ScenarioResult

	results = append(results, scenario("array", func() (bool, string) {
		a = array.New(s)
		a.Push(value.String("a"))
		a.Push(value.String("b"))
		a.Push(value.String("c"))
		size := a.Size()
		first := a.GetIndex(0)
		popped := a.Pop()
		ok := size == 3 && first.Equals(value.String("a")) &&
			popped.Equals(value.String("c")) && a.Size() == 2
		return ok, fmt.Sprintf("size=%d get(0)=%s pop()=%s size=%d",
			size, first.Inspect(), popped.Inspect(), a.Size())
	}))

	results = append(results, scenario("object", func() (bool, string) {
		o := array.New(s)
		defer o.Release()
		o.SetName("x", value.Int(5))
		o.SetName("y", value.String("hello"))
		var keys []string
		for _, k := range o.Keys() {
			keys = append(keys, k.Inspect())
		}
		o.EraseName("x")
		ok := strings.Join(keys, ",") == `"x","y"` && o.GetName("x").IsNone()
		return ok, fmt.Sprintf("keys=[%s] after erase: %s", strings.Join(keys, ", "), o.Inspect())
	}))

	results = append(results, scenario("shared lifetime", func() (bool, string) {
		b := a.Clone()
		defer b.Release()
		a.Release()
		ok := b.GetIndex(0).Equals(value.String("a")) && b.Size() == 2
		return ok, fmt.Sprintf("after dropping the original: %s refs=%d", b.Inspect(), s.RefCount(b.ID()))
	}))

	results = append(results, scenario("reference swap", func() (bool, string) {
		rs := &recordingStore{Store: s}
		o := array.New(rs)
		defer o.Release()
		o.SetName("x", value.Int(1))
		rs.calls = nil
		o.SetName("x", value.Int(2))
		calls := strings.Join(rs.calls, " ")
		ok := calls == "add_ref(2) remove_ref(1)" && o.GetName("x").Equals(value.Int(2))
		return ok, calls
	}))

	check := "ok"
	if err := s.Check(); err != nil {
		check = err.Error()
	}
	return DemoReport{
		Store:     s.ID().String(),
		Scenarios: results,
		Stats:     s.Stats(),
		Check:     check,
	}
}
