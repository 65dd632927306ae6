package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"tmsearch/browser"
	"tmsearch/challenge"
)

// The target markup is not stable; everything this package knows about it
// lives here. The results view is recognized either by the URL pattern or by
// the "Displaying ..." marker, and both waits are best-effort.
const (
	searchInputSelector = `input[type="text"], input[type="search"]`
	resultsURLToken     = "results"
	resultsMarker       = "Displaying"

	buttonClickTimeout = 3 * time.Second
	markerWaitTimeout  = 10 * time.Second
	settleDelay        = 2 * time.Second
)

const clickSearchButtonJS = `(() => {
	const controls = Array.from(document.querySelectorAll('button, input[type="submit"], a[role="button"]'));
	const btn = controls.find(el => ((el.innerText || el.value || '')).trim().toLowerCase().includes('search'));
	if (!btn) return false;
	btn.click();
	return true;
})()`

type Result struct {
	Success bool
	Detail  string
}

// Submitter fills the query into the search form and drives the page to the
// results view.
type Submitter struct {
	logger     *zap.Logger
	solver     *challenge.Solver
	baseURL    string
	navTimeout time.Duration
}

func NewSubmitter(logger *zap.Logger, solver *challenge.Solver, baseURL string, navTimeout time.Duration) *Submitter {
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	return &Submitter{logger: logger, solver: solver, baseURL: baseURL, navTimeout: navTimeout}
}

func (s *Submitter) Submit(sess *browser.Session, query string) Result {
	err := sess.Run(s.navTimeout,
		chromedp.Navigate(s.baseURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		currentURL, title, domLen := sess.PageState()
		s.logger.Error("navigation to search page failed",
			zap.Error(err),
			zap.String("current_url", currentURL),
			zap.String("title", title),
			zap.Int("dom_length", domLen))
		return Result{Success: false, Detail: fmt.Sprintf("navigation failed: %v", err)}
	}

	// Challenges can reappear after navigation.
	if res := s.solver.Solve(sess); !res.Solved {
		return Result{Success: false, Detail: "post-navigation challenge: " + res.Detail}
	}

	if err := sess.Run(10*time.Second,
		chromedp.WaitVisible(searchInputSelector, chromedp.ByQuery),
		chromedp.SendKeys(searchInputSelector, query, chromedp.ByQuery),
	); err != nil {
		return Result{Success: false, Detail: fmt.Sprintf("search input not found: %v", err)}
	}

	s.triggerSearch(sess)
	s.awaitResultsView(sess)

	time.Sleep(settleDelay)
	return Result{Success: true, Detail: "search submitted"}
}

// triggerSearch clicks the Search-labeled control, falling back to an Enter
// keystroke when no such control responds in time.
func (s *Submitter) triggerSearch(sess *browser.Session) {
	var clicked bool
	err := sess.Evaluate(clickSearchButtonJS, &clicked, buttonClickTimeout)
	if err == nil && clicked {
		s.logger.Debug("search button clicked")
		return
	}
	if err != nil {
		s.logger.Info("search button click failed, sending Enter", zap.Error(err))
	} else {
		s.logger.Info("no search button found, sending Enter")
	}
	if err := sess.Run(buttonClickTimeout,
		chromedp.SendKeys(searchInputSelector, kb.Enter, chromedp.ByQuery),
	); err != nil {
		s.logger.Warn("enter fallback failed", zap.Error(err))
	}
}

// awaitResultsView waits for the URL pattern then the rendered-results
// marker. Missing either is logged, never fatal.
func (s *Submitter) awaitResultsView(sess *browser.Session) {
	deadline := time.Now().Add(markerWaitTimeout)
	urlSeen := false
	for time.Now().Before(deadline) {
		var currentURL string
		if err := sess.Run(2*time.Second, chromedp.Location(&currentURL)); err == nil &&
			strings.Contains(currentURL, resultsURLToken) {
			urlSeen = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if !urlSeen {
		s.logger.Info("results URL pattern not observed", zap.String("token", resultsURLToken))
	}

	markerJS := fmt.Sprintf(`document.body.innerText.includes(%q)`, resultsMarker)
	deadline = time.Now().Add(markerWaitTimeout)
	for time.Now().Before(deadline) {
		var present bool
		if err := sess.Evaluate(markerJS, &present, 2*time.Second); err == nil && present {
			s.logger.Debug("results marker observed")
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	s.logger.Info("results marker not observed", zap.String("marker", resultsMarker))
}
