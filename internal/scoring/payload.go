package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
)

var (
	ErrInvalidQuestion = errors.New("invalid question")
	ErrInvalidOption   = errors.New("invalid option")
	ErrMissingRequired = errors.New("missing required responses")
)

// MissingResponsesError lists the reference codes of required questions
// that had no entry in the submitted payload.
type MissingResponsesError struct {
	Codes []string
}

func (e *MissingResponsesError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequired, strings.Join(e.Codes, ", "))
}

func (e *MissingResponsesError) Is(target error) bool { return target == ErrMissingRequired }

// ResponseInput is one raw entry of a submitted payload.
type ResponseInput struct {
	QuestionID        int64    `json:"question_id" validate:"required,gt=0"`
	OptionID          *int64   `json:"option_id,omitempty"`
	SelectedOptionIDs IDList   `json:"selected_option_ids,omitempty"`
	NumericResponse   *float64 `json:"numeric_response,omitempty"`
	TextResponse      *string  `json:"text_response,omitempty"`
	TimeSpentSeconds  *int     `json:"time_spent_seconds,omitempty" validate:"omitempty,gte=0"`
}

// IDList decodes a JSON array of ids given as numbers or numeric strings.
type IDList []int64

func (l *IDList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("selected_option_ids: %w", err)
	}
	out := make(IDList, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return fmt.Errorf("selected_option_ids: %s is not an integer id", bytes.TrimSpace(r))
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

// parseID accepts a JSON number or a JSON string holding one, with
// surrounding whitespace inside the string ignored.
func parseID(r json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	var id int64
	err := json.Unmarshal(r, &id)
	return id, err
}

// Draft is a payload entry resolved against the test definition.
type Draft struct {
	Question          *definition.Question
	OptionID          *int64
	SelectedOptionIDs []int64
	NumericResponse   *float64
	TextResponse      *string
	TimeSpentSeconds  *int
}

// Normalize resolves every entry against t and checks required questions.
// It fails fast on the first unknown question or option; nothing about the
// payload is persisted by this call. A repeated question id replaces the
// earlier entry in place.
func Normalize(t *definition.Test, payload []ResponseInput) ([]Draft, error) {
	idx := t.QuestionIndex()
	drafts := make([]Draft, 0, len(payload))
	at := make(map[int64]int, len(payload))

	for _, in := range payload {
		q, ok := idx[in.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrInvalidQuestion, in.QuestionID)
		}
		d := Draft{
			Question:         q,
			NumericResponse:  in.NumericResponse,
			TextResponse:     in.TextResponse,
			TimeSpentSeconds: in.TimeSpentSeconds,
		}
		if in.OptionID != nil {
			if _, ok := q.Option(*in.OptionID); !ok {
				return nil, fmt.Errorf("%w: option %d does not belong to question %s", ErrInvalidOption, *in.OptionID, q.RefCode())
			}
			id := *in.OptionID
			d.OptionID = &id
		}
		if q.Type.Kind() == definition.KindMultiSelect || len(in.SelectedOptionIDs) > 0 {
			d.SelectedOptionIDs = dedupe(in.SelectedOptionIDs)
			for _, id := range d.SelectedOptionIDs {
				if _, ok := q.Option(id); !ok {
					return nil, fmt.Errorf("%w: option %d does not belong to question %s", ErrInvalidOption, id, q.RefCode())
				}
			}
		}

		if i, seen := at[q.ID]; seen {
			drafts[i] = d
			continue
		}
		at[q.ID] = len(drafts)
		drafts = append(drafts, d)
	}

	var missing []string
	for i := range t.Questions {
		q := &t.Questions[i]
		if !q.Required {
			continue
		}
		if _, ok := at[q.ID]; !ok {
			missing = append(missing, q.RefCode())
		}
	}
	if len(missing) > 0 {
		return nil, &MissingResponsesError{Codes: missing}
	}
	return drafts, nil
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
