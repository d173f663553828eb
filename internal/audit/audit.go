package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionAssignmentCreated   Action = "assignment_created"
	ActionAssignmentStarted   Action = "assignment_started"
	ActionAssignmentSubmitted Action = "assignment_submitted"
	ActionAssignmentExpired   Action = "assignment_expired"
	ActionAssignmentCancelled Action = "assignment_cancelled"
)

type Event struct {
	ID           string         `json:"id"`
	TestID       int64          `json:"test_id"`
	AssignmentID int64          `json:"assignment_id"`
	CandidateID  int64          `json:"candidate_id"`
	ActorID      string         `json:"actor_id"`
	Action       Action         `json:"action"`
	Context      map[string]any `json:"context,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Sink accepts audit records. Callers treat failures as non-fatal.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// NewEvent stamps an id and time on a record.
func NewEvent(action Action, testID, assignmentID, candidateID int64, actorID string, ctxData map[string]any) Event {
	return Event{
		ID:           uuid.NewString(),
		TestID:       testID,
		AssignmentID: assignmentID,
		CandidateID:  candidateID,
		ActorID:      actorID,
		Action:       action,
		Context:      ctxData,
		OccurredAt:   time.Now().UTC(),
	}
}

// Multi fans a record out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes records to a structured logger.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Record(ctx context.Context, e Event) error {
	s.Log.InfoContext(ctx, "audit",
		"action", e.Action,
		"event_id", e.ID,
		"test_id", e.TestID,
		"assignment_id", e.AssignmentID,
		"candidate_id", e.CandidateID,
		"actor_id", e.ActorID,
	)
	return nil
}

// Nop discards records.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }
