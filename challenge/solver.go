package challenge

import (
	"time"

	"go.uber.org/zap"
)

// The widget is a Turnstile-style interactive control gating form submission.
// Presence and completion are observed through in-page evaluation only; the
// solver never interacts with the widget itself.
const (
	widgetPresentJS = `(() => {
		return document.querySelector(
			'iframe[src*="turnstile"], iframe[src*="challenge"], .cf-turnstile, #challenge-form, input[name="cf-turnstile-response"]'
		) !== null;
	})()`

	widgetSolvedJS = `(() => {
		const input = document.querySelector('input[name="cf-turnstile-response"]');
		if (input && input.value && input.value.length > 0) return true;
		const form = document.querySelector('#challenge-form, .cf-turnstile');
		return form === null;
	})()`
)

// Evaluator runs a script in the live page. *browser.Session satisfies it.
type Evaluator interface {
	Evaluate(js string, out any, timeout time.Duration) error
}

type Result struct {
	Solved bool
	Detail string
}

// Solver waits out an interactive anti-bot widget. A short probe decides
// whether a widget is present at all; only then does the longer completion
// wait apply. Absence is success, timeout is not.
type Solver struct {
	logger       *zap.Logger
	ProbeTimeout time.Duration
	SolveTimeout time.Duration
	PollInterval time.Duration
}

func NewSolver(logger *zap.Logger) *Solver {
	return &Solver{
		logger:       logger,
		ProbeTimeout: 5 * time.Second,
		SolveTimeout: 30 * time.Second,
		PollInterval: 500 * time.Millisecond,
	}
}

func (s *Solver) Solve(page Evaluator) Result {
	if !s.probePresence(page) {
		s.logger.Debug("no challenge widget on page")
		return Result{Solved: true, Detail: "not required"}
	}

	s.logger.Info("challenge widget detected, waiting for completion",
		zap.Duration("timeout", s.SolveTimeout))

	deadline := time.Now().Add(s.SolveTimeout)
	for time.Now().Before(deadline) {
		var solved bool
		if err := page.Evaluate(widgetSolvedJS, &solved, s.PollInterval*4); err != nil {
			s.logger.Debug("challenge poll failed", zap.Error(err))
		} else if solved {
			s.logger.Info("challenge solved")
			return Result{Solved: true, Detail: "challenge solved"}
		}
		time.Sleep(s.PollInterval)
	}

	return Result{Solved: false, Detail: "challenge not solved within " + s.SolveTimeout.String()}
}

func (s *Solver) probePresence(page Evaluator) bool {
	deadline := time.Now().Add(s.ProbeTimeout)
	for {
		var present bool
		if err := page.Evaluate(widgetPresentJS, &present, s.PollInterval*4); err != nil {
			s.logger.Debug("challenge probe failed", zap.Error(err))
		} else if present {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(s.PollInterval)
	}
}
