package assignment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

// SQLStore persists assignments and the responses and results they own.
// Every method takes the Querier to run on so callers decide the
// transaction boundary.
type SQLStore struct {
	driver db.Driver
}

func NewSQLStore(driver db.Driver) *SQLStore {
	return &SQLStore{driver: driver}
}

const assignmentColumns = `id, test_id, candidate_id, assigned_by, status, assigned_at, started_at,
	completed_at, expires_at, time_limit_minutes, attempts_used, duration_seconds, randomization_seed,
	question_order_json, metadata_json, result_snapshot_json`

type ListOpts struct {
	TestID      int64
	CandidateID int64
	Status      Status
	Limit       int
	Offset      int
}

// CountActive counts non-cancelled assignments of a candidate for a test.
func (s *SQLStore) CountActive(ctx context.Context, q db.Querier, testID, candidateID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments
		WHERE test_id=$1 AND candidate_id=$2 AND status <> $3`,
		testID, candidateID, string(StatusCancelled)).Scan(&n)
	return n, err
}

func (s *SQLStore) Insert(ctx context.Context, q db.Querier, a *Assignment) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	return q.QueryRowContext(ctx, `INSERT INTO assignments
		(test_id, candidate_id, assigned_by, status, assigned_at, expires_at, time_limit_minutes,
		 attempts_used, randomization_seed, metadata_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		a.TestID, a.CandidateID, a.AssignedBy, string(a.Status), a.AssignedAt.Unix(), db.NullUnix(a.ExpiresAt),
		a.TimeLimitMinutes, a.AttemptsUsed, a.RandomizationSeed, string(meta),
	).Scan(&a.ID)
}

// Get loads one assignment. With lock set the row stays locked until the
// surrounding transaction ends.
func (s *SQLStore) Get(ctx context.Context, q db.Querier, id int64, lock bool) (Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id=$1`
	if lock {
		query += s.driver.LockClause()
	}
	a, err := scanAssignment(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return a, err
}

func (s *SQLStore) Update(ctx context.Context, q db.Querier, a *Assignment) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	var order sql.NullString
	if a.QuestionOrder != nil {
		b, err := json.Marshal(a.QuestionOrder)
		if err != nil {
			return err
		}
		order = sql.NullString{String: string(b), Valid: true}
	}
	var snapshot sql.NullString
	if a.ResultSnapshot != nil {
		b, err := json.Marshal(a.ResultSnapshot)
		if err != nil {
			return err
		}
		snapshot = sql.NullString{String: string(b), Valid: true}
	}
	_, err = q.ExecContext(ctx, `UPDATE assignments SET
		status=$1, started_at=$2, completed_at=$3, expires_at=$4, time_limit_minutes=$5,
		attempts_used=$6, duration_seconds=$7, question_order_json=$8, metadata_json=$9,
		result_snapshot_json=$10
		WHERE id=$11`,
		string(a.Status), db.NullUnix(a.StartedAt), db.NullUnix(a.CompletedAt), db.NullUnix(a.ExpiresAt),
		a.TimeLimitMinutes, a.AttemptsUsed, db.NullInt64(a.DurationSeconds), order, string(meta),
		snapshot, a.ID)
	return err
}

func (s *SQLStore) List(ctx context.Context, q db.Querier, opts ListOpts) ([]Assignment, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	where := []string{"1=1"}
	args := []any{}
	if opts.TestID > 0 {
		args = append(args, opts.TestID)
		where = append(where, fmt.Sprintf("test_id=$%d", len(args)))
	}
	if opts.CandidateID > 0 {
		args = append(args, opts.CandidateID)
		where = append(where, fmt.Sprintf("candidate_id=$%d", len(args)))
	}
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		assignmentColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row scanner) (Assignment, error) {
	var (
		a                                 Assignment
		status                            string
		assignedAt                        int64
		startedAt, completedAt, expiresAt sql.NullInt64
		duration                          sql.NullInt64
		orderJSON, snapshotJSON           sql.NullString
		metaJSON                          string
	)
	if err := row.Scan(&a.ID, &a.TestID, &a.CandidateID, &a.AssignedBy, &status, &assignedAt,
		&startedAt, &completedAt, &expiresAt, &a.TimeLimitMinutes, &a.AttemptsUsed, &duration,
		&a.RandomizationSeed, &orderJSON, &metaJSON, &snapshotJSON); err != nil {
		return Assignment{}, err
	}
	a.Status = Status(status)
	a.AssignedAt = time.Unix(assignedAt, 0).UTC()
	a.StartedAt = db.TimePtr(startedAt)
	a.CompletedAt = db.TimePtr(completedAt)
	a.ExpiresAt = db.TimePtr(expiresAt)
	a.DurationSeconds = db.Int64Ptr(duration)
	if orderJSON.Valid {
		a.QuestionOrder = []int64{}
		if err := json.Unmarshal([]byte(orderJSON.String), &a.QuestionOrder); err != nil {
			return Assignment{}, fmt.Errorf("assignment %d question_order: %w", a.ID, err)
		}
	}
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &a.Metadata); err != nil {
			return Assignment{}, fmt.Errorf("assignment %d metadata: %w", a.ID, err)
		}
	}
	if snapshotJSON.Valid {
		a.ResultSnapshot = &scoring.Summary{}
		if err := json.Unmarshal([]byte(snapshotJSON.String), a.ResultSnapshot); err != nil {
			return Assignment{}, fmt.Errorf("assignment %d result_snapshot: %w", a.ID, err)
		}
	}
	return a, nil
}

// UpsertResponse writes the single response of (assignment, question),
// overwriting any earlier submission of the same question.
func (s *SQLStore) UpsertResponse(ctx context.Context, q db.Querier, r *Response) error {
	sel := r.SelectedOptionIDs
	if sel == nil {
		sel = []int64{}
	}
	selJSON, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	var spent sql.NullInt64
	if r.TimeSpentSeconds != nil {
		spent = sql.NullInt64{Int64: int64(*r.TimeSpentSeconds), Valid: true}
	}
	var text sql.NullString
	if r.TextResponse != nil {
		text = sql.NullString{String: *r.TextResponse, Valid: true}
	}
	return q.QueryRowContext(ctx, `INSERT INTO responses
		(assignment_id, question_id, option_id, selected_option_ids_json, numeric_response,
		 text_response, time_spent_seconds, responded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (assignment_id, question_id) DO UPDATE SET
		  option_id=EXCLUDED.option_id,
		  selected_option_ids_json=EXCLUDED.selected_option_ids_json,
		  numeric_response=EXCLUDED.numeric_response,
		  text_response=EXCLUDED.text_response,
		  time_spent_seconds=EXCLUDED.time_spent_seconds,
		  responded_at=EXCLUDED.responded_at
		RETURNING id`,
		r.AssignmentID, r.QuestionID, db.NullInt64(r.OptionID), string(selJSON),
		db.NullFloat64(r.NumericResponse), text, spent, r.RespondedAt.Unix(),
	).Scan(&r.ID)
}

func (s *SQLStore) ListResponses(ctx context.Context, q db.Querier, assignmentID int64) ([]Response, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, assignment_id, question_id, option_id, selected_option_ids_json,
		numeric_response, text_response, time_spent_seconds, responded_at
		FROM responses WHERE assignment_id=$1 ORDER BY id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		var (
			r         Response
			optionID  sql.NullInt64
			selJSON   string
			numeric   sql.NullFloat64
			text      sql.NullString
			spent     sql.NullInt64
			responded int64
		)
		if err := rows.Scan(&r.ID, &r.AssignmentID, &r.QuestionID, &optionID, &selJSON,
			&numeric, &text, &spent, &responded); err != nil {
			return nil, err
		}
		r.OptionID = db.Int64Ptr(optionID)
		r.NumericResponse = db.Float64Ptr(numeric)
		if text.Valid {
			t := text.String
			r.TextResponse = &t
		}
		if spent.Valid {
			n := int(spent.Int64)
			r.TimeSpentSeconds = &n
		}
		r.SelectedOptionIDs = []int64{}
		if err := json.Unmarshal([]byte(selJSON), &r.SelectedOptionIDs); err != nil {
			return nil, fmt.Errorf("response %d selected_option_ids: %w", r.ID, err)
		}
		r.RespondedAt = time.Unix(responded, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceResults deletes every result row of the assignment and writes rs.
// Results are recomputed, never patched.
func (s *SQLStore) ReplaceResults(ctx context.Context, q db.Querier, assignmentID int64, rs []Result) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM results WHERE assignment_id=$1`, assignmentID); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	for i := range rs {
		r := &rs[i]
		meta, err := json.Marshal(r.Meta)
		if err != nil {
			return err
		}
		var band sql.NullString
		if r.Band != nil {
			band = sql.NullString{String: string(*r.Band), Valid: true}
		}
		if err := q.QueryRowContext(ctx, `INSERT INTO results
			(assignment_id, dimension_id, raw_score, weighted_score, percentile, band, meta_json, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
			assignmentID, db.NullInt64(r.DimensionID), r.RawScore, r.WeightedScore,
			db.NullFloat64(r.Percentile), band, string(meta), r.CreatedAt.Unix(),
		).Scan(&r.ID); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}
	return nil
}

// ListResults returns per-dimension rows first (by dimension id), then the
// overall row.
func (s *SQLStore) ListResults(ctx context.Context, q db.Querier, assignmentID int64) ([]Result, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, assignment_id, dimension_id, raw_score, weighted_score,
		percentile, band, meta_json, created_at
		FROM results WHERE assignment_id=$1
		ORDER BY CASE WHEN dimension_id IS NULL THEN 1 ELSE 0 END, dimension_id, id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var (
			r          Result
			dimID      sql.NullInt64
			percentile sql.NullFloat64
			band       sql.NullString
			meta       string
			created    int64
		)
		if err := rows.Scan(&r.ID, &r.AssignmentID, &dimID, &r.RawScore, &r.WeightedScore,
			&percentile, &band, &meta, &created); err != nil {
			return nil, err
		}
		r.DimensionID = db.Int64Ptr(dimID)
		r.Percentile = db.Float64Ptr(percentile)
		if band.Valid {
			b := scoring.Band(band.String)
			r.Band = &b
		}
		if err := json.Unmarshal([]byte(meta), &r.Meta); err != nil {
			return nil, fmt.Errorf("result %d metadata: %w", r.ID, err)
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
