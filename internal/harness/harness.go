// Package harness runs conformance scenarios against the persistence layer.
// Scenarios are YAML files describing operation sequences and expected
// results; each run produces a deterministic text trace that is compared
// against a golden file, so contract drift shows up as a readable diff.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prismkit/stash/internal/stash"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Trace is the deterministic line-per-operation log of the run.
	Trace string

	// Failures lists expectation mismatches. A run with failures still
	// carries its full trace.
	Failures []string
}

// Run executes a scenario against a fresh database at path and returns its
// trace and expectation failures. Malformed steps are an error; expectation
// mismatches are not.
func Run(ctx context.Context, sc *Scenario, path string) (*Result, error) {
	db := stash.New(stash.Config{Driver: sc.Driver, Path: path})
	defer db.Close()

	res := &Result{}
	var lines []string

	for i, step := range sc.Steps {
		line, err := runStep(ctx, db, i, step, res)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	res.Trace = strings.Join(lines, "\n") + "\n"
	return res, nil
}

func runStep(ctx context.Context, db *stash.DB, i int, step Step, res *Result) (string, error) {
	store := stash.Store(step.Store)

	switch step.Op {
	case "initialize":
		ok := db.Initialize(ctx)
		res.checkOK(i, step, ok)
		return fmt.Sprintf("initialize -> %t", ok), nil

	case "isready":
		ok := db.IsReady()
		res.checkOK(i, step, ok)
		return fmt.Sprintf("isready -> %t", ok), nil

	case "issupported":
		ok := db.IsSupported()
		res.checkOK(i, step, ok)
		return fmt.Sprintf("issupported -> %t", ok), nil

	case "close":
		db.Close()
		return "close", nil

	case "get":
		raw := db.Get(ctx, store, step.Key)
		res.checkGet(i, step, raw)
		return fmt.Sprintf("get %s/%s -> %s", store, step.Key, rawString(raw)), nil

	case "set":
		ok := db.Set(ctx, store, step.Key, step.Value)
		res.checkOK(i, step, ok)
		return fmt.Sprintf("set %s/%s -> %t", store, step.Key, ok), nil

	case "delete":
		ok := db.Delete(ctx, store, step.Key)
		res.checkOK(i, step, ok)
		return fmt.Sprintf("delete %s/%s -> %t", store, step.Key, ok), nil

	case "keys":
		keys := db.Keys(ctx, store)
		if step.WantKeys != nil && !equalKeys(keys, step.WantKeys) {
			res.failf(i, step, "keys = %v, want %v", keys, step.WantKeys)
		}
		return fmt.Sprintf("keys %s -> %s", store, mustJSON(keys)), nil

	case "getall":
		values := db.GetAll(ctx, store)
		if step.WantCount != nil && len(values) != *step.WantCount {
			res.failf(i, step, "getall returned %d values, want %d", len(values), *step.WantCount)
		}
		return fmt.Sprintf("getall %s -> %s", store, mustJSON(values)), nil

	case "count":
		n := db.Count(ctx, store)
		if step.WantCount != nil && n != *step.WantCount {
			res.failf(i, step, "count = %d, want %d", n, *step.WantCount)
		}
		return fmt.Sprintf("count %s -> %d", store, n), nil

	case "clear":
		ok := db.Clear(ctx, store)
		res.checkOK(i, step, ok)
		return fmt.Sprintf("clear %s -> %t", store, ok), nil

	default:
		return "", fmt.Errorf("step %d: unknown op %q", i, step.Op)
	}
}

func (r *Result) failf(i int, step Step, format string, args ...any) {
	prefix := fmt.Sprintf("step %d (%s): ", i, step.Op)
	r.Failures = append(r.Failures, prefix+fmt.Sprintf(format, args...))
}

func (r *Result) checkOK(i int, step Step, got bool) {
	if step.WantOK != nil && got != *step.WantOK {
		r.failf(i, step, "result = %t, want %t", got, *step.WantOK)
	}
}

func (r *Result) checkGet(i int, step Step, raw json.RawMessage) {
	if step.WantAbsent {
		if raw != nil {
			r.failf(i, step, "got %s, want absent", raw)
		}
		return
	}
	if step.Want == nil {
		return
	}
	if raw == nil {
		r.failf(i, step, "got absent, want %v", step.Want)
		return
	}
	if canonical(step.Want) != canonicalRaw(raw) {
		r.failf(i, step, "got %s, want %s", canonicalRaw(raw), canonical(step.Want))
	}
}

// canonical renders a value through a JSON round trip so YAML-decoded
// expectations and stored bytes compare by structure, not representation.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("!unserializable: %v", err)
	}
	return canonicalRaw(b)
}

func canonicalRaw(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Sprintf("!undecodable: %v", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("!unserializable: %v", err)
	}
	return string(b)
}

func rawString(raw json.RawMessage) string {
	if raw == nil {
		return "null"
	}
	return string(raw)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("!unserializable: %v", err)
	}
	return string(b)
}

func equalKeys(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
