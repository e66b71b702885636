package constants

// Analysis lifecycle statuses
const (
	AnalysisStatusDraft      = "draft"
	AnalysisStatusProcessing = "processing"
	AnalysisStatusCompleted  = "completed"
	AnalysisStatusFailed     = "failed"
)

// Diagnostic severities persisted with run output
const (
	DiagnosticSeverityWarning = "warning"
	DiagnosticSeverityFatal   = "fatal"
)

// Run queue defaults
const (
	// DefaultEngineWorkerCount bounds the per-run jurisdiction workers.
	DefaultEngineWorkerCount = 4

	// RunRequestMessageGroup tags SQS run-request messages.
	RunRequestMessageGroup = "analysis-run"
)
