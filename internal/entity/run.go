package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
)

// ProcessingStage is a progress event emitted while a run advances.
type ProcessingStage struct {
	Stage    constants.Stage `json:"stage"`
	Message  string          `json:"message"`
	Progress int             `json:"progress"`
}

// RunResult is the successful outcome of one pipeline run.
type RunResult struct {
	RunID     uuid.UUID     `json:"run_id"`
	Questions []Question    `json:"questions"`
	Model     string        `json:"model"`
	Attempts  int           `json:"attempts"`
	Pages     int           `json:"pages"`
	Truncated bool          `json:"truncated"`
	Elapsed   time.Duration `json:"elapsed"`
}

// GenerationRun is a run journal row for data transfer between layers.
type GenerationRun struct {
	ID            uuid.UUID           `json:"id"`
	SourceKind    string              `json:"source_kind"`
	SourceRef     string              `json:"source_ref"`
	Title         string              `json:"title"`
	Course        string              `json:"course"`
	Difficulty    string              `json:"difficulty"`
	QuestionTypes string              `json:"question_types"`
	QuestionCount int                 `json:"question_count"`
	Status        constants.RunStatus `json:"status"`
	ErrorKind     *string             `json:"error_kind,omitempty"`
	ErrorMessage  *string             `json:"error_message,omitempty"`
	Model         *string             `json:"model,omitempty"`
	Attempts      int                 `json:"attempts"`
	Questions     int                 `json:"questions"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    *time.Time          `json:"finished_at,omitempty"`
	ElapsedMS     int64               `json:"elapsed_ms"`
}
