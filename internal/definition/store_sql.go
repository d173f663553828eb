package definition

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
)

// SQLStore persists definition graphs. A graph is written once by
// CreateTest; afterwards only the published flag changes.
type SQLStore struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d, now: time.Now}
}

func (s *SQLStore) CreateTest(ctx context.Context, in NewTest) (Test, error) {
	if err := in.Validate(); err != nil {
		return Test{}, err
	}
	sm, err := json.Marshal(in.ScoringModel)
	if err != nil {
		return Test{}, err
	}

	var testID int64
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var attempts sql.NullInt64
		if in.AllowedAttempts != nil {
			attempts = sql.NullInt64{Int64: int64(*in.AllowedAttempts), Valid: true}
		}
		err := tx.QueryRowContext(ctx, `INSERT INTO tests
			(title, category, instructions, time_limit_minutes, allowed_attempts, randomize_questions, published, scoring_model_json, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
			in.Title, in.Category, in.Instructions, in.TimeLimitMinutes, attempts,
			in.RandomizeQuestions, in.Published, string(sm), s.now().Unix(),
		).Scan(&testID)
		if err != nil {
			return fmt.Errorf("insert test: %w", err)
		}

		dimIDs := make(map[string]int64, len(in.Dimensions))
		for _, d := range in.Dimensions {
			var id int64
			if err := tx.QueryRowContext(ctx, `INSERT INTO dimensions (test_id, dim_key, name, weight)
				VALUES ($1,$2,$3,$4) RETURNING id`,
				testID, d.Key, d.Name, weightOr1(d.Weight),
			).Scan(&id); err != nil {
				return fmt.Errorf("insert dimension %q: %w", d.Key, err)
			}
			dimIDs[d.Key] = id
		}

		for i, q := range in.Questions {
			var dimID sql.NullInt64
			if q.DimensionKey != "" {
				dimID = sql.NullInt64{Int64: dimIDs[q.DimensionKey], Valid: true}
			}
			meta, err := json.Marshal(q.Meta)
			if err != nil {
				return err
			}
			var qid int64
			if err := tx.QueryRowContext(ctx, `INSERT INTO questions
				(test_id, dimension_id, code, prompt, question_type, weight, is_required, randomize_options, base_order, meta_json)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
				testID, dimID, q.Code, q.Prompt, string(q.Type), weightOr1(q.Weight),
				q.Required, q.RandomizeOptions, intOr(q.BaseOrder, i), string(meta),
			).Scan(&qid); err != nil {
				return fmt.Errorf("insert question %d: %w", i, err)
			}
			for j, o := range q.Options {
				if _, err := tx.ExecContext(ctx, `INSERT INTO options
					(question_id, label, value, score, weight, position)
					VALUES ($1,$2,$3,$4,$5,$6)`,
					qid, o.Label, o.Value, o.Score, weightOr1(o.Weight), intOr(o.Position, j),
				); err != nil {
					return fmt.Errorf("insert option %d of question %d: %w", j, i, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return Test{}, err
	}
	return s.GetTest(ctx, testID)
}

func (s *SQLStore) GetTest(ctx context.Context, id int64) (Test, error) {
	q := s.db.SQL
	var (
		t        Test
		attempts sql.NullInt64
		smJSON   string
		created  int64
	)
	err := q.QueryRowContext(ctx, `SELECT id, title, category, instructions, time_limit_minutes,
		allowed_attempts, randomize_questions, published, scoring_model_json, created_at
		FROM tests WHERE id=$1`, id,
	).Scan(&t.ID, &t.Title, &t.Category, &t.Instructions, &t.TimeLimitMinutes,
		&attempts, &t.RandomizeQuestions, &t.Published, &smJSON, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, fmt.Errorf("%w: %d", ErrTestNotFound, id)
		}
		return Test{}, err
	}
	if attempts.Valid {
		n := int(attempts.Int64)
		t.AllowedAttempts = &n
	}
	if smJSON != "" {
		if err := json.Unmarshal([]byte(smJSON), &t.ScoringModel); err != nil {
			return Test{}, fmt.Errorf("test %d scoring_model: %w", id, err)
		}
	}
	t.CreatedAt = time.Unix(created, 0).UTC()

	if t.Dimensions, err = s.loadDimensions(ctx, q, id); err != nil {
		return Test{}, err
	}
	if t.Questions, err = s.loadQuestions(ctx, q, id); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) loadDimensions(ctx context.Context, q db.Querier, testID int64) ([]Dimension, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, test_id, dim_key, name, weight
		FROM dimensions WHERE test_id=$1 ORDER BY id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Dimension{}
	for rows.Next() {
		var d Dimension
		if err := rows.Scan(&d.ID, &d.TestID, &d.Key, &d.Name, &d.Weight); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) loadQuestions(ctx context.Context, q db.Querier, testID int64) ([]Question, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, test_id, dimension_id, code, prompt, question_type,
		weight, is_required, randomize_options, base_order, meta_json
		FROM questions WHERE test_id=$1 ORDER BY base_order, id`, testID)
	if err != nil {
		return nil, err
	}
	out := []Question{}
	pos := map[int64]int{}
	for rows.Next() {
		var (
			qu    Question
			dimID sql.NullInt64
			typ   string
			meta  string
		)
		if err := rows.Scan(&qu.ID, &qu.TestID, &dimID, &qu.Code, &qu.Prompt, &typ,
			&qu.Weight, &qu.Required, &qu.RandomizeOptions, &qu.BaseOrder, &meta); err != nil {
			rows.Close()
			return nil, err
		}
		qu.DimensionID = db.Int64Ptr(dimID)
		qu.Type = QuestionType(typ)
		if strings.TrimSpace(meta) != "" {
			if err := json.Unmarshal([]byte(meta), &qu.Meta); err != nil {
				rows.Close()
				return nil, fmt.Errorf("question %d metadata: %w", qu.ID, err)
			}
		}
		pos[qu.ID] = len(out)
		out = append(out, qu)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orows, err := q.QueryContext(ctx, `SELECT o.id, o.question_id, o.label, o.value, o.score, o.weight, o.position
		FROM options o JOIN questions q ON q.id = o.question_id
		WHERE q.test_id=$1 ORDER BY o.question_id, o.position, o.id`, testID)
	if err != nil {
		return nil, err
	}
	defer orows.Close()
	for orows.Next() {
		var o Option
		if err := orows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Value, &o.Score, &o.Weight, &o.Position); err != nil {
			return nil, err
		}
		if i, ok := pos[o.QuestionID]; ok {
			out[i].Options = append(out[i].Options, o)
		}
	}
	return out, orows.Err()
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	where := []string{"1=1"}
	args := []any{}
	if opts.PublishedOnly {
		args = append(args, true)
		where = append(where, fmt.Sprintf("t.published=$%d", len(args)))
	}
	if opts.Category != "" {
		args = append(args, opts.Category)
		where = append(where, fmt.Sprintf("t.category=$%d", len(args)))
	}
	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(`SELECT t.id, t.title, t.category, t.time_limit_minutes, t.allowed_attempts, t.published,
		(SELECT COUNT(*) FROM questions q WHERE q.test_id=t.id),
		(SELECT COUNT(*) FROM dimensions d WHERE d.test_id=t.id)
		FROM tests t WHERE %s ORDER BY t.id DESC LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestSummary{}
	for rows.Next() {
		var (
			ts       TestSummary
			attempts sql.NullInt64
		)
		if err := rows.Scan(&ts.ID, &ts.Title, &ts.Category, &ts.TimeLimitMinutes, &attempts,
			&ts.Published, &ts.QuestionCount, &ts.DimensionCount); err != nil {
			return nil, err
		}
		if attempts.Valid {
			n := int(attempts.Int64)
			ts.AllowedAttempts = &n
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetPublished(ctx context.Context, id int64, published bool) error {
	res, err := s.db.SQL.ExecContext(ctx, `UPDATE tests SET published=$1 WHERE id=$2`, published, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrTestNotFound, id)
	}
	return nil
}
