package definition

import (
	"context"
	"errors"
)

var (
	ErrTestNotFound = errors.New("test not found")
	ErrInvalidTest  = errors.New("invalid test definition")
)

// Reader is all the scoring engine and the assignment lifecycle need.
type Reader interface {
	GetTest(ctx context.Context, id int64) (Test, error)
}

type Store interface {
	Reader
	CreateTest(ctx context.Context, in NewTest) (Test, error)
	ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error)
	SetPublished(ctx context.Context, id int64, published bool) error
}

type ListOpts struct {
	PublishedOnly bool
	Category      string
	Limit         int
	Offset        int
}

type TestSummary struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Category         string `json:"category,omitempty"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	AllowedAttempts  *int   `json:"allowed_attempts"`
	Published        bool   `json:"published"`
	QuestionCount    int    `json:"question_count"`
	DimensionCount   int    `json:"dimension_count"`
}

// NewTest is the authoring payload for a whole definition graph. Questions
// reference their dimension by key because ids do not exist yet.
type NewTest struct {
	Title              string         `json:"title" validate:"required"`
	Category           string         `json:"category"`
	Instructions       string         `json:"instructions"`
	TimeLimitMinutes   int            `json:"time_limit_minutes" validate:"gte=0"`
	AllowedAttempts    *int           `json:"allowed_attempts" validate:"omitempty,gte=1"`
	RandomizeQuestions bool           `json:"randomize_questions"`
	Published          bool           `json:"published"`
	ScoringModel       ScoringModel   `json:"scoring_model"`
	Dimensions         []NewDimension `json:"dimensions" validate:"dive"`
	Questions          []NewQuestion  `json:"questions" validate:"dive"`
}

type NewDimension struct {
	Key    string   `json:"key" validate:"required"`
	Name   string   `json:"name" validate:"required"`
	Weight *float64 `json:"weight" validate:"omitempty,gte=0"` // nil = 1
}

type NewQuestion struct {
	DimensionKey     string       `json:"dimension_key"`
	Code             string       `json:"code"`
	Prompt           string       `json:"prompt"`
	Type             QuestionType `json:"question_type" validate:"required"`
	Weight           *float64     `json:"weight" validate:"omitempty,gte=0"` // nil = 1
	Required         bool         `json:"is_required"`
	RandomizeOptions bool         `json:"randomize_options"`
	BaseOrder        *int         `json:"base_order"` // nil = input position
	Meta             QuestionMeta `json:"metadata"`
	Options          []NewOption  `json:"options" validate:"dive"`
}

type NewOption struct {
	Label    string   `json:"label" validate:"required"`
	Value    string   `json:"value"`
	Score    float64  `json:"score"`
	Weight   *float64 `json:"weight" validate:"omitempty,gte=0"` // nil = 1
	Position *int     `json:"position"`                          // nil = input position
}
