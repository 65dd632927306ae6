package challenge

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakePage scripts the widget lifecycle the page would expose.
type fakePage struct {
	present     bool
	solveAfter  int // polls of the solved signal before it flips
	solvedPolls int
	evalErr     error
}

func (f *fakePage) Evaluate(js string, out any, _ time.Duration) error {
	if f.evalErr != nil {
		return f.evalErr
	}
	b, ok := out.(*bool)
	if !ok {
		return errors.New("unexpected out type")
	}
	if strings.Contains(js, "!== null") && !strings.Contains(js, "input && input.value") {
		*b = f.present
		return nil
	}
	f.solvedPolls++
	*b = f.solvedPolls > f.solveAfter
	return nil
}

func newTestSolver(probe, solve time.Duration) *Solver {
	s := NewSolver(zap.NewNop())
	s.ProbeTimeout = probe
	s.SolveTimeout = solve
	s.PollInterval = time.Millisecond
	return s
}

func TestSolveWidgetAbsent(t *testing.T) {
	// absence reports success no matter which bounds are configured
	for _, probe := range []time.Duration{5 * time.Millisecond, 50 * time.Millisecond} {
		s := newTestSolver(probe, time.Minute)
		res := s.Solve(&fakePage{present: false})
		if !res.Solved {
			t.Fatalf("probe %s: expected solved on absent widget", probe)
		}
		if res.Detail != "not required" {
			t.Errorf("probe %s: expected detail %q, got %q", probe, "not required", res.Detail)
		}
	}
}

func TestSolveWidgetCompletes(t *testing.T) {
	s := newTestSolver(10*time.Millisecond, 200*time.Millisecond)
	res := s.Solve(&fakePage{present: true, solveAfter: 3})
	if !res.Solved {
		t.Fatalf("expected solved, got %+v", res)
	}
	if res.Detail != "challenge solved" {
		t.Errorf("unexpected detail %q", res.Detail)
	}
}

func TestSolveWidgetTimesOut(t *testing.T) {
	s := newTestSolver(10*time.Millisecond, 30*time.Millisecond)
	res := s.Solve(&fakePage{present: true, solveAfter: 1 << 30})
	if res.Solved {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Detail, "not solved within") {
		t.Errorf("unexpected detail %q", res.Detail)
	}
}

func TestSolveEvaluationErrorTreatedAsAbsent(t *testing.T) {
	s := newTestSolver(10*time.Millisecond, 30*time.Millisecond)
	res := s.Solve(&fakePage{evalErr: errors.New("page gone")})
	if !res.Solved {
		t.Fatal("evaluation errors during the probe must not fail the step")
	}
}
