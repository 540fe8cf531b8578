package constants

// Stage is the coarse progress phase reported while a quiz is generated.
type Stage string

const (
	StageExtracting Stage = "extracting"
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageFormatting Stage = "formatting"
)

// RunStatus is the canonical status for rows in generation_runs.
type RunStatus string

// Stable values (stored as-is in the journal).
const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)
