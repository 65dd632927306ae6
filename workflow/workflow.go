package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tmsearch/browser"
	"tmsearch/challenge"
	"tmsearch/details"
	"tmsearch/extract"
	"tmsearch/format"
	"tmsearch/relevance"
	"tmsearch/search"
	"tmsearch/storage"
	"tmsearch/trademark"
)

type Step int

const (
	StepInitialize Step = iota
	StepAuthenticate
	StepSearch
	StepExtract
	StepFormat
	StepError
)

func (s Step) String() string {
	switch s {
	case StepInitialize:
		return "initialize"
	case StepAuthenticate:
		return "authenticate"
	case StepSearch:
		return "search"
	case StepExtract:
		return "extractResults"
	case StepFormat:
		return "formatResults"
	case StepError:
		return "error"
	default:
		return "unknown"
	}
}

type Failure struct {
	Message   string
	Retryable bool
}

// State is the workflow's working value. Transition functions return a new
// State instead of mutating a shared one, so concurrent invocations never
// share anything but the collaborators.
type State struct {
	Step    Step
	Attempt int
	Session *browser.Session
	Raw     []trademark.RawResult
	Failure *Failure
}

type Opener interface {
	Open(ctx context.Context) (*browser.Session, error)
}

type ChallengeSolver interface {
	Solve(page challenge.Evaluator) challenge.Result
}

type Submitter interface {
	Submit(sess *browser.Session, query string) search.Result
}

type Extractor interface {
	Extract(sess *browser.Session) extract.Result
}

// Workflow drives one search invocation through
// initialize → authenticate → search → extractResults → formatResults,
// retrying from scratch on retryable step failures. Scorer, Enricher,
// History and ScreenshotDir are optional post-processing collaborators.
type Workflow struct {
	opener     Opener
	solver     ChallengeSolver
	submitter  Submitter
	extractor  Extractor
	formatter  format.Formatter
	maxRetries int
	logger     *zap.Logger

	Scorer        *relevance.Scorer
	Enricher      *details.Enricher
	History       *storage.HistoryStore
	ScreenshotDir string
}

func New(opener Opener, solver ChallengeSolver, submitter Submitter, extractor Extractor,
	formatter format.Formatter, maxRetries int, logger *zap.Logger) *Workflow {
	return &Workflow{
		opener:     opener,
		solver:     solver,
		submitter:  submitter,
		extractor:  extractor,
		formatter:  formatter,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Run executes the state machine. On terminal failure it returns a nil
// outcome; partial data is never surfaced.
func (w *Workflow) Run(ctx context.Context, params trademark.SearchParameters) (*trademark.Outcome, error) {
	started := time.Now()
	st := State{Step: StepInitialize}

	for {
		w.logger.Debug("workflow step",
			zap.String("step", st.Step.String()),
			zap.Int("attempt", st.Attempt))

		switch st.Step {
		case StepInitialize:
			st = w.initialize(ctx, st)
		case StepAuthenticate:
			st = w.authenticate(st)
		case StepSearch:
			st = w.search(st, params.Query)
		case StepExtract:
			st = w.extract(st)
		case StepFormat:
			return w.complete(ctx, st, params, started), nil
		case StepError:
			next, retry := w.recoverFromFailure(st)
			if !retry {
				return nil, fmt.Errorf("search failed after %d attempt(s): %s",
					st.Attempt+1, st.Failure.Message)
			}
			st = next
		}
	}
}

func (w *Workflow) initialize(ctx context.Context, st State) State {
	sess, err := w.opener.Open(ctx)
	if err != nil {
		// A browser that cannot start will not start on the next attempt
		// either; abort the whole search.
		return st.fail(nil, fmt.Sprintf("session setup failed: %v", err), false)
	}
	return State{Step: StepAuthenticate, Attempt: st.Attempt, Session: sess}
}

func (w *Workflow) authenticate(st State) State {
	res := w.solver.Solve(st.Session)
	if !res.Solved {
		return st.fail(st.Session, "authentication failed: "+res.Detail, true)
	}
	w.logger.Info("authentication step passed", zap.String("detail", res.Detail))
	return State{Step: StepSearch, Attempt: st.Attempt, Session: st.Session}
}

func (w *Workflow) search(st State, query string) State {
	res := w.submitter.Submit(st.Session, query)
	if !res.Success {
		return st.fail(st.Session, "search submission failed: "+res.Detail, true)
	}
	return State{Step: StepExtract, Attempt: st.Attempt, Session: st.Session}
}

func (w *Workflow) extract(st State) State {
	res := w.extractor.Extract(st.Session)
	if !res.Success {
		// A failed page evaluation means the markup no longer matches the
		// heuristic; retrying the same session will not change that.
		return st.fail(st.Session, "extraction failed: "+res.Detail, false)
	}
	return State{Step: StepFormat, Attempt: st.Attempt, Session: st.Session, Raw: res.Results}
}

// recoverFromFailure closes the failed attempt's session and decides whether another
// attempt is allowed.
func (w *Workflow) recoverFromFailure(st State) (State, bool) {
	if st.Session != nil {
		if w.ScreenshotDir != "" {
			name := fmt.Sprintf("failure-attempt%d", st.Attempt+1)
			if err := st.Session.Screenshot(w.ScreenshotDir, name); err != nil {
				w.logger.Debug("failure screenshot skipped", zap.Error(err))
			}
		}
		st.Session.Close()
	}

	if st.Failure.Retryable && st.Attempt+1 < w.maxRetries {
		w.logger.Warn("retrying search",
			zap.String("reason", st.Failure.Message),
			zap.Int("next_attempt", st.Attempt+2),
			zap.Int("max_attempts", w.maxRetries))
		return State{Step: StepInitialize, Attempt: st.Attempt + 1}, true
	}

	w.logger.Error("workflow terminated",
		zap.String("reason", st.Failure.Message),
		zap.Bool("retryable", st.Failure.Retryable),
		zap.Int("attempts", st.Attempt+1))
	return State{}, false
}

// complete formats, post-processes, caps and stamps the outcome, and always
// closes the session.
func (w *Workflow) complete(ctx context.Context, st State, params trademark.SearchParameters, started time.Time) *trademark.Outcome {
	defer st.Session.Close()

	records := w.formatter.Format(ctx, st.Raw)

	if w.Scorer != nil {
		w.Scorer.ScoreRecords(records)
	}
	if w.Enricher != nil {
		w.Enricher.Enrich(records)
	}

	total := len(records)
	if len(records) > params.Limit {
		records = records[:params.Limit]
	}

	outcome := &trademark.Outcome{
		ID:           uuid.NewString(),
		Query:        params.Query,
		TotalResults: total,
		Page:         1,
		Records:      records,
		ElapsedMs:    time.Since(started).Milliseconds(),
		CompletedAt:  time.Now(),
	}

	if w.History != nil {
		if err := w.History.SaveOutcome(outcome); err != nil {
			w.logger.Warn("failed to persist outcome", zap.Error(err))
		}
	}

	w.logger.Info("search complete",
		zap.String("id", outcome.ID),
		zap.Int("total_results", outcome.TotalResults),
		zap.Int("returned", len(outcome.Records)),
		zap.Int64("elapsed_ms", outcome.ElapsedMs))

	return outcome
}

func (st State) fail(sess *browser.Session, message string, retryable bool) State {
	return State{
		Step:    StepError,
		Attempt: st.Attempt,
		Session: sess,
		Failure: &Failure{Message: message, Retryable: retryable},
	}
}
