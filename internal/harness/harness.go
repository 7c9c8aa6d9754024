package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/tessera/internal/algebrize"
	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/edn"
	"github.com/roach88/tessera/internal/engine"
	"github.com/roach88/tessera/internal/projector"
	"github.com/roach88/tessera/internal/query"
	"github.com/roach88/tessera/internal/store"
	"github.com/roach88/tessera/internal/testutil"
	"github.com/roach88/tessera/internal/vocab"
)

// Harness holds one scenario's store.
type Harness struct {
	store   *store.Store
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
	tempids map[string]core.Entid
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Open an in-memory store with a deterministic clock
//  2. Compile and install the vocabulary
//  3. Allocate tempids and assert the facts
//  4. Run each query and compare it with its expectation
//
// A returned error means the scenario could not be set up; query
// mismatches are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with store logging sent to logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	st, err := store.Open("", store.WithClock(clock), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		clock:   clock,
		logger:  logger,
		tempids: make(map[string]core.Entid),
	}

	if err := h.install(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to install vocabulary: %w", err)
	}
	if err := h.assertFacts(ctx, scenario.Facts); err != nil {
		return nil, fmt.Errorf("failed to assert facts: %w", err)
	}

	eng := engine.New(st)
	result := NewResult(scenario.Name)
	for _, qc := range scenario.Queries {
		h.runQuery(ctx, eng, qc, result)
	}
	return result, nil
}

func (h *Harness) install(ctx context.Context, scenario *Scenario) error {
	defs, err := vocab.Compile(scenario.Name+".cue", []byte(scenario.Vocabulary))
	if err != nil {
		return err
	}
	_, err = h.store.InstallAttributes(ctx, defs)
	return err
}

func (h *Harness) assertFacts(ctx context.Context, facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}

	var names []string
	for _, f := range facts {
		for _, name := range []string{f.E, f.Ref} {
			if name != "" && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	entids, err := h.store.AllocateEntids(ctx, len(names))
	if err != nil {
		return err
	}
	for i, name := range names {
		h.tempids[name] = entids[i]
	}

	converted := make([]store.Fact, len(facts))
	for i, f := range facts {
		a, err := core.ParseKeyword(f.A)
		if err != nil {
			return fmt.Errorf("facts[%d]: %w", i, err)
		}
		var v core.TypedValue
		if f.Ref != "" {
			v = core.Ref(h.tempids[f.Ref])
		} else if v, err = edn.ReadLiteral(f.V); err != nil {
			return fmt.Errorf("facts[%d]: v: %w", i, err)
		}
		converted[i] = store.Fact{E: h.tempids[f.E], A: a, V: v}
	}

	report, err := h.store.Assert(ctx, converted)
	if err != nil {
		return err
	}
	h.logger.Debug("scenario facts asserted", "tx", report.Tx, "datoms", report.Datoms)
	return nil
}

func (h *Harness) runQuery(ctx context.Context, eng *engine.Engine, qc QueryCase, result *Result) {
	outcome := QueryOutcome{Name: qc.Name}

	inputs, err := parseInputs(qc.Inputs)
	if err != nil {
		outcome.Error = err.Error()
		result.addOutcome(outcome, fmt.Sprintf("%s: inputs: %v", qc.Name, err))
		return
	}

	res, err := eng.QueryLimit(ctx, qc.Query, inputs, qc.Limit)
	if err != nil {
		outcome.Code = string(core.CodeOf(err))
		outcome.Error = err.Error()
		outcome.Pass = qc.Error != "" && outcome.Code == qc.Error
		msg := fmt.Sprintf("%s: unexpected error: %v", qc.Name, err)
		if qc.Error != "" {
			msg = fmt.Sprintf("%s: expected error %s, got %s: %v", qc.Name, qc.Error, outcome.Code, err)
		}
		result.addOutcome(outcome, msg)
		return
	}

	outcome.Got = projector.Format(res)
	outcome.Len = res.Len()

	var msg string
	switch {
	case qc.Error != "":
		msg = fmt.Sprintf("%s: expected error %s, got %s", qc.Name, qc.Error, outcome.Got)
	case qc.Expect != nil:
		want, err := normalizeEDN(*qc.Expect)
		if err != nil {
			msg = fmt.Sprintf("%s: expect: %v", qc.Name, err)
			break
		}
		outcome.Pass = want == outcome.Got
		msg = fmt.Sprintf("%s: expected %s, got %s", qc.Name, want, outcome.Got)
	case qc.Len != nil:
		outcome.Pass = *qc.Len == outcome.Len
		msg = fmt.Sprintf("%s: expected %d results, got %d", qc.Name, *qc.Len, outcome.Len)
	}
	result.addOutcome(outcome, msg)
}

// parseInputs reads each input as an EDN literal.
func parseInputs(raw map[string]string) (algebrize.Inputs, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	inputs := make(algebrize.Inputs, len(raw))
	for name, text := range raw {
		v, err := edn.ReadLiteral(text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		inputs[query.Variable(name)] = v
	}
	return inputs, nil
}

// normalizeEDN re-renders an expected EDN form so that spacing and
// formatting differences do not matter.
func normalizeEDN(text string) (string, error) {
	v, err := edn.Read(text)
	if err != nil {
		return "", err
	}
	return edn.Format(v), nil
}
