package assignment

import (
	"time"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusScored     Status = "scored"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no ordinary transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusScored || s == StatusExpired || s == StatusCancelled
}

type Assignment struct {
	ID                int64            `json:"id"`
	TestID            int64            `json:"test_id"`
	CandidateID       int64            `json:"candidate_id"`
	AssignedBy        string           `json:"assigned_by,omitempty"`
	Status            Status           `json:"status"`
	AssignedAt        time.Time        `json:"assigned_at"`
	StartedAt         *time.Time       `json:"started_at"`
	CompletedAt       *time.Time       `json:"completed_at"`
	ExpiresAt         *time.Time       `json:"expires_at"`
	TimeLimitMinutes  int              `json:"time_limit_minutes"` // 0 = untimed
	AttemptsUsed      int              `json:"attempts_used"`
	DurationSeconds   *int64           `json:"duration_seconds"`
	RandomizationSeed string           `json:"randomization_seed"`
	QuestionOrder     []int64          `json:"question_order"` // nil until first start
	Metadata          Metadata         `json:"metadata"`
	ResultSnapshot    *scoring.Summary `json:"result_snapshot"`
}

// Metadata is the typed side data of an assignment. Extra keeps free-form
// caller data without losing it across releases.
type Metadata struct {
	TargetRole     string            `json:"target_role,omitempty"`
	InvitationNote string            `json:"invitation_note,omitempty"`
	OptionOrder    map[int64][]int64 `json:"option_order,omitempty"`
	ForceSubmitted bool              `json:"force_submit,omitempty"`
	CancelReason   string            `json:"cancel_reason,omitempty"`
	Extra          map[string]any    `json:"extra,omitempty"`
}

// deadline is the end of the time box, or nil when untimed or not started.
func (a *Assignment) deadline() *time.Time {
	if a.StartedAt == nil || a.TimeLimitMinutes <= 0 {
		return nil
	}
	d := a.StartedAt.Add(time.Duration(a.TimeLimitMinutes) * time.Minute)
	return &d
}

type Response struct {
	ID                int64     `json:"id"`
	AssignmentID      int64     `json:"assignment_id"`
	QuestionID        int64     `json:"question_id"`
	OptionID          *int64    `json:"option_id"`
	SelectedOptionIDs []int64   `json:"selected_option_ids"`
	NumericResponse   *float64  `json:"numeric_response"`
	TextResponse      *string   `json:"text_response"`
	TimeSpentSeconds  *int      `json:"time_spent_seconds"`
	RespondedAt       time.Time `json:"responded_at"`
}

// StoredResponse is a persisted response with its question and selected
// option resolved from the definition.
type StoredResponse struct {
	Response
	Question *definition.Question `json:"question"`
	Option   *definition.Option   `json:"option,omitempty"`
}

// Result is one scored row: per dimension, or overall when DimensionID is nil.
type Result struct {
	ID            int64         `json:"id"`
	AssignmentID  int64         `json:"assignment_id"`
	DimensionID   *int64        `json:"dimension_id"`
	RawScore      float64       `json:"raw_score"`
	WeightedScore float64       `json:"weighted_score"`
	Percentile    *float64      `json:"percentile"`
	Band          *scoring.Band `json:"band"`
	Meta          ResultMeta    `json:"metadata"`
	CreatedAt     time.Time     `json:"created_at"`
}

type ResultMeta struct {
	MaxRawScore      float64 `json:"max_raw_score"`
	MaxWeightedScore float64 `json:"max_weighted_score"`
	DimensionKey     string  `json:"dimension_key,omitempty"`
	DimensionWeight  float64 `json:"dimension_weight,omitempty"`
}

// Presentation is the frozen order replayed to the candidate. Scores are
// never part of it.
type Presentation struct {
	AssignmentID int64               `json:"assignment_id"`
	TestID       int64               `json:"test_id"`
	Title        string              `json:"title"`
	Instructions string              `json:"instructions,omitempty"`
	Status       Status              `json:"status"`
	ExpiresAt    *time.Time          `json:"expires_at"`
	Questions    []PresentedQuestion `json:"questions"`
}

type PresentedQuestion struct {
	ID           int64                   `json:"id"`
	Code         string                  `json:"code,omitempty"`
	Prompt       string                  `json:"prompt,omitempty"`
	Type         definition.QuestionType `json:"question_type"`
	Required     bool                    `json:"is_required"`
	DimensionKey string                  `json:"dimension_key,omitempty"`
	Options      []PresentedOption       `json:"options,omitempty"`
}

type PresentedOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}
