package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLSink appends records to the audit_log table.
type SQLSink struct{ db *sql.DB }

func NewSQLSink(db *sql.DB) *SQLSink { return &SQLSink{db: db} }

func (s *SQLSink) Record(ctx context.Context, e Event) error {
	data, err := json.Marshal(e.Context)
	if err != nil {
		return fmt.Errorf("audit: marshal context: %w", err)
	}
	if e.Context == nil {
		data = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (event_id, test_id, assignment_id, candidate_id, actor_id, action, context_json, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.TestID, e.AssignmentID, e.CandidateID, e.ActorID, string(e.Action), string(data), e.OccurredAt.Unix())
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// List returns the records of one assignment, oldest first.
func (s *SQLSink) List(ctx context.Context, assignmentID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, test_id, assignment_id, candidate_id, actor_id, action, context_json, created_at
		 FROM audit_log WHERE assignment_id=$1 ORDER BY id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e       Event
			action  string
			data    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.TestID, &e.AssignmentID, &e.CandidateID, &e.ActorID, &action, &data, &created); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		_ = json.Unmarshal([]byte(data), &e.Context)
		e.OccurredAt = unixUTC(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
