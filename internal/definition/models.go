package definition

import (
	"encoding/json"
	"fmt"
	"time"
)

// Test is a fully resolved definition graph: dimensions, questions and
// their options. Questions are ordered by base_order then id, options by
// position then id.
type Test struct {
	ID                 int64        `json:"id"`
	Title              string       `json:"title"`
	Category           string       `json:"category,omitempty"`
	Instructions       string       `json:"instructions,omitempty"`
	TimeLimitMinutes   int          `json:"time_limit_minutes"`
	AllowedAttempts    *int         `json:"allowed_attempts"` // nil = unlimited
	RandomizeQuestions bool         `json:"randomize_questions"`
	Published          bool         `json:"published"`
	ScoringModel       ScoringModel `json:"scoring_model"`
	CreatedAt          time.Time    `json:"created_at"`

	Dimensions []Dimension `json:"dimensions"`
	Questions  []Question  `json:"questions"`
}

type Dimension struct {
	ID     int64   `json:"id"`
	TestID int64   `json:"test_id"`
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

type Question struct {
	ID               int64        `json:"id"`
	TestID           int64        `json:"test_id"`
	DimensionID      *int64       `json:"dimension_id,omitempty"`
	Code             string       `json:"code,omitempty"`
	Prompt           string       `json:"prompt,omitempty"`
	Type             QuestionType `json:"question_type"`
	Weight           float64      `json:"weight"`
	Required         bool         `json:"is_required"`
	RandomizeOptions bool         `json:"randomize_options"`
	BaseOrder        int          `json:"base_order"`
	Meta             QuestionMeta `json:"metadata"`
	Options          []Option     `json:"options,omitempty"`
}

type Option struct {
	ID         int64   `json:"id"`
	QuestionID int64   `json:"question_id"`
	Label      string  `json:"label"`
	Value      string  `json:"value,omitempty"`
	Score      float64 `json:"score"`
	Weight     float64 `json:"weight"`
	Position   int     `json:"position"`
}

// QuestionMeta carries the type-specific settings of a question. Keys the
// service does not understand are kept in Extra.
type QuestionMeta struct {
	MaxNumeric *float64       `json:"max_numeric,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// UnmarshalJSON accepts "max" as an alias of "max_numeric".
func (m *QuestionMeta) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = QuestionMeta{}
	for _, k := range []string{"max_numeric", "max"} {
		v, ok := raw[k]
		if !ok || string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("metadata.%s: %w", k, err)
		}
		m.MaxNumeric = &f
		break
	}
	if v, ok := raw["extra"]; ok {
		if err := json.Unmarshal(v, &m.Extra); err != nil {
			return fmt.Errorf("metadata.extra: %w", err)
		}
	}
	return nil
}

// ScoringModel holds band thresholds; an empty model means the default
// 80/50/20 cut-offs.
type ScoringModel struct {
	Bands []BandThreshold `json:"bands,omitempty"`
}

type BandThreshold struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
}

// RefCode is the code reported for a question in validation errors.
func (q *Question) RefCode() string {
	if q.Code != "" {
		return q.Code
	}
	return fmt.Sprintf("Q%d", q.ID)
}

func (q *Question) Option(id int64) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

func (t *Test) Dimension(id int64) (*Dimension, bool) {
	for i := range t.Dimensions {
		if t.Dimensions[i].ID == id {
			return &t.Dimensions[i], true
		}
	}
	return nil, false
}

// QuestionIndex maps question id to the question inside t.
func (t *Test) QuestionIndex() map[int64]*Question {
	idx := make(map[int64]*Question, len(t.Questions))
	for i := range t.Questions {
		idx[t.Questions[i].ID] = &t.Questions[i]
	}
	return idx
}
