package runtime

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
	"github.com/wippyai/ctorbridge/manifest"
)

// Result is the outcome of one run.
type Result struct {
	// Object is the constructed object, possibly partially initialized.
	Object *behavior.Object

	// Err is the construction error, if any.
	Err error

	// Failure describes how the run missed its expectation. Empty on pass.
	Failure string

	Run      manifest.Run
	Duration time.Duration
}

// Passed reports whether the run met its expectation.
func (r Result) Passed() bool { return r.Failure == "" }

// Execute performs one run and checks its expectation.
func (r *Runtime) Execute(ctx context.Context, run manifest.Run) Result {
	start := time.Now()
	res := Result{Run: run}
	res.Object, res.Err = r.perform(ctx, run)
	res.Duration = time.Since(start)
	res.Failure = check(run, res.Object, res.Err)
	return res
}

// ExecuteAll performs runs with at most parallel in flight. Results keep the
// order of runs.
func (r *Runtime) ExecuteAll(ctx context.Context, runs []manifest.Run, parallel int) []Result {
	results := make([]Result, len(runs))

	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, run := range runs {
		g.Go(func() error {
			results[i] = r.Execute(ctx, run)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) perform(ctx context.Context, run manifest.Run) (*behavior.Object, error) {
	c, err := r.Lookup(run.Target)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(run.Args))
	for i, a := range run.Args {
		args[i] = toValue(a)
	}

	var this any
	if run.Fresh {
		this = behavior.NewObject()
	} else {
		this = toValue(run.This)
	}

	switch run.Op {
	case manifest.OpConstruct:
		return c.Construct(ctx, this, args...)
	case manifest.OpNew:
		return c.New(ctx, args...)
	case manifest.OpCall:
		return c.Call(ctx, this, args...)
	default:
		return nil, errors.InvalidInput(errors.PhaseInvoke, fmt.Sprintf("unknown op %q", run.Op))
	}
}

// toValue converts decoded manifest data into runtime values. Maps become
// plain objects with sorted keys.
func toValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := behavior.NewObject()
	for _, k := range keys {
		obj.Set(k, toValue(m[k]))
	}
	return obj
}

func check(run manifest.Run, obj *behavior.Object, err error) string {
	if run.Error != "" {
		if err == nil {
			return fmt.Sprintf("expected error %s, got success", run.Error)
		}
		if got := errors.KindOf(err); got != errors.Kind(run.Error) {
			return fmt.Sprintf("expected error %s, got %s: %v", run.Error, got, err)
		}
		return ""
	}
	if err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}
	return matchFields(obj, run.Expect, "")
}

func matchFields(obj *behavior.Object, expect map[string]any, prefix string) string {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		want := expect[k]
		got, ok := obj.Get(k)
		if !ok {
			return fmt.Sprintf("missing field %s%s", prefix, k)
		}
		if nested, ok := want.(map[string]any); ok {
			gotObj, ok := got.(*behavior.Object)
			if !ok {
				return fmt.Sprintf("field %s%s = %v, want object", prefix, k, got)
			}
			if msg := matchFields(gotObj, nested, prefix+k+"."); msg != "" {
				return msg
			}
			continue
		}
		if !valuesEqual(got, want) {
			return fmt.Sprintf("field %s%s = %v, want %v", prefix, k, got, want)
		}
	}
	return ""
}

// valuesEqual compares values with every number widened to float64.
func valuesEqual(a, b any) bool {
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
