package workflow

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"tmsearch/browser"
	"tmsearch/challenge"
	"tmsearch/extract"
	"tmsearch/format"
	"tmsearch/search"
	"tmsearch/trademark"
)

type fakeOpener struct {
	sessions []*browser.Session
	fail     bool
}

func (f *fakeOpener) Open(_ context.Context) (*browser.Session, error) {
	if f.fail {
		return nil, errors.New("no chrome binary")
	}
	sess := &browser.Session{}
	f.sessions = append(f.sessions, sess)
	return sess, nil
}

type fakeSolver struct {
	failures int
	calls    int
}

func (f *fakeSolver) Solve(_ challenge.Evaluator) challenge.Result {
	f.calls++
	if f.calls <= f.failures {
		return challenge.Result{Solved: false, Detail: "challenge not solved within 30s"}
	}
	return challenge.Result{Solved: true, Detail: "not required"}
}

type fakeSubmitter struct {
	fail bool
}

func (f *fakeSubmitter) Submit(_ *browser.Session, _ string) search.Result {
	if f.fail {
		return search.Result{Success: false, Detail: "search input not found"}
	}
	return search.Result{Success: true, Detail: "search submitted"}
}

type fakeExtractor struct {
	results []trademark.RawResult
	fail    bool
}

func (f *fakeExtractor) Extract(_ *browser.Session) extract.Result {
	if f.fail {
		return extract.Result{Success: false, Results: []trademark.RawResult{}, Detail: "page evaluation failed"}
	}
	return extract.Result{Success: true, Results: f.results}
}

func params(t *testing.T, limit int) trademark.SearchParameters {
	t.Helper()
	p, err := trademark.NewParameters("nike", "brand", "", "", limit)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestWorkflow(opener *fakeOpener, solver *fakeSolver, submitter *fakeSubmitter, extractor *fakeExtractor) *Workflow {
	return New(opener, solver, submitter, extractor, format.NewDirect(zap.NewNop()), 3, zap.NewNop())
}

func assertAllClosed(t *testing.T, opener *fakeOpener) {
	t.Helper()
	for i, sess := range opener.sessions {
		if !sess.Closed() {
			t.Errorf("session %d leaked", i)
		}
	}
}

func TestRunCapsRecordsAtLimit(t *testing.T) {
	raws := make([]trademark.RawResult, 5)
	for i := range raws {
		raws[i] = trademark.RawResult{Mark: "MARK", Owner: "Owner Co"}
	}
	opener := &fakeOpener{}
	wf := newTestWorkflow(opener, &fakeSolver{}, &fakeSubmitter{}, &fakeExtractor{results: raws})

	outcome, err := wf.Run(context.Background(), params(t, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Records) != 3 {
		t.Errorf("expected 3 records, got %d", len(outcome.Records))
	}
	if outcome.TotalResults != 5 {
		t.Errorf("total results must count before the cap, got %d", outcome.TotalResults)
	}
	if outcome.Page != 1 {
		t.Errorf("page = %d, want 1", outcome.Page)
	}
	if outcome.ID == "" {
		t.Error("outcome must carry an id")
	}
	assertAllClosed(t, opener)
}

func TestRunRetriesRetryableAuthFailure(t *testing.T) {
	opener := &fakeOpener{}
	solver := &fakeSolver{failures: 1}
	wf := newTestWorkflow(opener, solver, &fakeSubmitter{}, &fakeExtractor{results: []trademark.RawResult{{Mark: "MARK"}}})

	outcome, err := wf.Run(context.Background(), params(t, 10))
	if err != nil {
		t.Fatalf("expected recovery on retry, got: %v", err)
	}
	if outcome == nil {
		t.Fatal("expected an outcome after retry")
	}
	if len(opener.sessions) != 2 {
		t.Errorf("expected a fresh session per attempt, got %d", len(opener.sessions))
	}
	assertAllClosed(t, opener)
}

func TestRunExhaustsRetriesAndTerminates(t *testing.T) {
	opener := &fakeOpener{}
	solver := &fakeSolver{failures: 1 << 30}
	wf := newTestWorkflow(opener, solver, &fakeSubmitter{}, &fakeExtractor{})

	outcome, err := wf.Run(context.Background(), params(t, 10))
	if err == nil {
		t.Fatal("expected terminal failure")
	}
	if outcome != nil {
		t.Fatal("a failed search must not yield partial data")
	}
	if solver.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", solver.calls)
	}
	if len(opener.sessions) != 3 {
		t.Errorf("expected one session per attempt, got %d", len(opener.sessions))
	}
	assertAllClosed(t, opener)
}

func TestRunExtractFailureIsNotRetried(t *testing.T) {
	opener := &fakeOpener{}
	wf := newTestWorkflow(opener, &fakeSolver{}, &fakeSubmitter{}, &fakeExtractor{fail: true})

	outcome, err := wf.Run(context.Background(), params(t, 10))
	if err == nil || outcome != nil {
		t.Fatal("expected terminal failure without outcome")
	}
	if len(opener.sessions) != 1 {
		t.Errorf("extraction failures must not retry, got %d sessions", len(opener.sessions))
	}
	assertAllClosed(t, opener)
}

func TestRunSubmitFailureIsRetried(t *testing.T) {
	opener := &fakeOpener{}
	submitter := &fakeSubmitter{fail: true}
	wf := newTestWorkflow(opener, &fakeSolver{}, submitter, &fakeExtractor{})

	_, err := wf.Run(context.Background(), params(t, 10))
	if err == nil {
		t.Fatal("expected terminal failure")
	}
	if len(opener.sessions) != 3 {
		t.Errorf("submission failures are retryable, expected 3 sessions, got %d", len(opener.sessions))
	}
	assertAllClosed(t, opener)
}

func TestRunSessionSetupFailureAborts(t *testing.T) {
	opener := &fakeOpener{fail: true}
	wf := newTestWorkflow(opener, &fakeSolver{}, &fakeSubmitter{}, &fakeExtractor{})

	outcome, err := wf.Run(context.Background(), params(t, 10))
	if err == nil || outcome != nil {
		t.Fatal("expected immediate terminal failure")
	}
}

func TestRunEmptyExtractionStillCompletes(t *testing.T) {
	opener := &fakeOpener{}
	wf := newTestWorkflow(opener, &fakeSolver{}, &fakeSubmitter{}, &fakeExtractor{results: []trademark.RawResult{}})

	outcome, err := wf.Run(context.Background(), params(t, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.TotalResults != 0 || len(outcome.Records) != 0 {
		t.Errorf("expected an empty outcome, got %+v", outcome)
	}
	assertAllClosed(t, opener)
}
