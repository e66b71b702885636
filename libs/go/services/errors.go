package services

import "errors"

// Sentinel errors shared across the nexus engine and its consuming services.
// Callers branch with errors.Is; wrapped variants carry jurisdiction and year
// context.
var (
	// ErrRuleNotFound means no rule version covers the requested date.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrNegativeLiability marks a computed liability below zero. The
	// affected jurisdiction-year fails; the value is never clamped.
	ErrNegativeLiability = errors.New("negative computed liability")

	// ErrAnalysisNotFound means the requested analysis does not exist.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrAnalysisNotRunnable means the analysis is in a state that cannot
	// be (re)computed, for example one already mid-run.
	ErrAnalysisNotRunnable = errors.New("analysis not runnable")

	// ErrAnalysisLocked means the analysis is mid-run and its inputs cannot
	// be changed until the run finishes.
	ErrAnalysisLocked = errors.New("analysis is processing")

	// ErrResultsNotAvailable means the analysis has never completed a run,
	// so there is no result set or summary to return.
	ErrResultsNotAvailable = errors.New("analysis has no computed results")
)

// IsRuleNotFound reports whether err stems from a failed rule resolution.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}
