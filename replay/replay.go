package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jonwraymond/kvops/instrument"
	"github.com/jonwraymond/kvops/store"
)

// ErrInvalidCount indicates the count record holds something other than an
// integer.
var ErrInvalidCount = errors.New("replay: call count is not an integer")

// Entry pairs one recorded input with its output.
type Entry struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Trace is the recorded history of one operation.
type Trace struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Calls []Entry `json:"calls"`
}

// Load reads the count and history records for name.
//
// A missing count record reads as 0. Inputs and outputs are paired by
// position; if the lists differ in length, pairing stops at the shorter one.
func Load(ctx context.Context, st store.Store, name string) (*Trace, error) {
	if store.IsNil(st) {
		return nil, store.ErrNilStore
	}
	if name == "" {
		return nil, instrument.ErrMissingName
	}

	trace := &Trace{Name: name, Calls: []Entry{}}

	raw, ok, err := st.Get(ctx, instrument.CountKey(name))
	if err != nil {
		return nil, fmt.Errorf("replay: read count %s: %w", name, err)
	}
	if ok {
		trace.Count, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCount, raw)
		}
	}

	inputs, err := st.LRange(ctx, instrument.InputsKey(name))
	if err != nil {
		return nil, fmt.Errorf("replay: read inputs %s: %w", name, err)
	}
	outputs, err := st.LRange(ctx, instrument.OutputsKey(name))
	if err != nil {
		return nil, fmt.Errorf("replay: read outputs %s: %w", name, err)
	}

	n := min(len(inputs), len(outputs))
	for i := 0; i < n; i++ {
		trace.Calls = append(trace.Calls, Entry{Input: inputs[i], Output: outputs[i]})
	}
	return trace, nil
}

// WriteTo prints the trace: a summary line, then one line per call.
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := fmt.Fprintf(w, "%s was called %d times:\n", t.Name, t.Count)
	total += int64(n)
	if err != nil {
		return total, err
	}

	for _, call := range t.Calls {
		n, err := fmt.Fprintf(w, "%s(*%s) -> %s\n", t.Name, call.Input, call.Output)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Replay loads the history of name from st and prints it to w.
//
// A nil store is not an error: nothing is printed and nil is returned.
func Replay(ctx context.Context, w io.Writer, name string, st store.Store) error {
	if store.IsNil(st) {
		return nil
	}

	trace, err := Load(ctx, st, name)
	if err != nil {
		return err
	}
	_, err = trace.WriteTo(w)
	return err
}

var _ io.WriterTo = (*Trace)(nil)
