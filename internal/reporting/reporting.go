// Package reporting serves read-only roll-ups over scored assignments.
package reporting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
)

type Aggregator struct {
	db *db.DB
}

func New(d *db.DB) *Aggregator {
	return &Aggregator{db: d}
}

// Filter narrows every roll-up. Zero values match everything.
type Filter struct {
	TestID int64
}

type TestSummary struct {
	TestID               int64    `json:"test_id"`
	Title                string   `json:"title"`
	AssignmentCount      int      `json:"assignment_count"`
	CandidateCount       int      `json:"candidate_count"`
	ScoredCount          int      `json:"scored_count"`
	AverageWeightedScore *float64 `json:"average_weighted_score"`
}

type RoleSummary struct {
	TargetRole           string   `json:"target_role"`
	AssignmentCount      int      `json:"assignment_count"`
	AverageWeightedScore *float64 `json:"average_weighted_score"`
}

type CandidateSummary struct {
	CandidateID       int64    `json:"candidate_id"`
	AssignmentCount   int      `json:"assignment_count"`
	AveragePercentile *float64 `json:"average_percentile"`
}

// ByTest averages the overall weighted score of each test and counts its
// distinct assignments and candidates. Cancelled assignments are ignored.
func (a *Aggregator) ByTest(ctx context.Context, f Filter) ([]TestSummary, error) {
	args := []any{"cancelled", "scored"}
	where := "a.status <> $1"
	if f.TestID > 0 {
		args = append(args, f.TestID)
		where += fmt.Sprintf(" AND t.id = $%d", len(args))
	}
	rows, err := a.db.SQL.QueryContext(ctx, `SELECT t.id, t.title,
		COUNT(DISTINCT a.id),
		COUNT(DISTINCT a.candidate_id),
		COUNT(DISTINCT CASE WHEN a.status = $2 THEN a.id END),
		AVG(r.weighted_score)
		FROM tests t
		JOIN assignments a ON a.test_id = t.id
		LEFT JOIN results r ON r.assignment_id = a.id AND r.dimension_id IS NULL
		WHERE `+where+`
		GROUP BY t.id, t.title
		ORDER BY t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("report by test: %w", err)
	}
	defer rows.Close()
	out := []TestSummary{}
	for rows.Next() {
		var (
			s   TestSummary
			avg sql.NullFloat64
		)
		if err := rows.Scan(&s.TestID, &s.Title, &s.AssignmentCount, &s.CandidateCount, &s.ScoredCount, &avg); err != nil {
			return nil, err
		}
		s.AverageWeightedScore = roundPtr(avg)
		out = append(out, s)
	}
	return out, rows.Err()
}

// snapshotRow is the part of a scored assignment the role and candidate
// roll-ups read. Snapshots live in JSON columns, so grouping happens here
// rather than in dialect-specific SQL.
type snapshotRow struct {
	CandidateID int64
	Meta        struct {
		TargetRole string `json:"target_role"`
	}
	Snapshot struct {
		TotalWeightedScore float64  `json:"total_weighted_score"`
		Percentile         *float64 `json:"percentile"`
	}
}

func (a *Aggregator) scored(ctx context.Context, f Filter) ([]snapshotRow, error) {
	args := []any{"scored"}
	query := `SELECT candidate_id, metadata_json, result_snapshot_json FROM assignments
		WHERE status = $1 AND result_snapshot_json IS NOT NULL`
	if f.TestID > 0 {
		args = append(args, f.TestID)
		query += fmt.Sprintf(" AND test_id = $%d", len(args))
	}
	rows, err := a.db.SQL.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []snapshotRow{}
	for rows.Next() {
		var (
			r              snapshotRow
			meta, snapshot string
		)
		if err := rows.Scan(&r.CandidateID, &meta, &snapshot); err != nil {
			return nil, err
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &r.Meta); err != nil {
				return nil, fmt.Errorf("assignment metadata: %w", err)
			}
		}
		if err := json.Unmarshal([]byte(snapshot), &r.Snapshot); err != nil {
			return nil, fmt.Errorf("result snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByRole averages result_snapshot.total_weighted_score per target role.
func (a *Aggregator) ByRole(ctx context.Context, f Filter) ([]RoleSummary, error) {
	rows, err := a.scored(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("report by role: %w", err)
	}
	type acc struct {
		n   int
		sum float64
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		g, ok := groups[r.Meta.TargetRole]
		if !ok {
			g = &acc{}
			groups[r.Meta.TargetRole] = g
		}
		g.n++
		g.sum += r.Snapshot.TotalWeightedScore
	}
	out := make([]RoleSummary, 0, len(groups))
	for role, g := range groups {
		avg := round2(g.sum / float64(g.n))
		out = append(out, RoleSummary{TargetRole: role, AssignmentCount: g.n, AverageWeightedScore: &avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetRole < out[j].TargetRole })
	return out, nil
}

// ByCandidate averages result_snapshot.percentile per candidate. Snapshots
// without a percentile count as assignments but not towards the average.
func (a *Aggregator) ByCandidate(ctx context.Context, f Filter) ([]CandidateSummary, error) {
	rows, err := a.scored(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("report by candidate: %w", err)
	}
	type acc struct {
		n, withPct int
		sum        float64
	}
	groups := map[int64]*acc{}
	for _, r := range rows {
		g, ok := groups[r.CandidateID]
		if !ok {
			g = &acc{}
			groups[r.CandidateID] = g
		}
		g.n++
		if p := r.Snapshot.Percentile; p != nil {
			g.withPct++
			g.sum += *p
		}
	}
	out := make([]CandidateSummary, 0, len(groups))
	for id, g := range groups {
		s := CandidateSummary{CandidateID: id, AssignmentCount: g.n}
		if g.withPct > 0 {
			avg := round2(g.sum / float64(g.withPct))
			s.AveragePercentile = &avg
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CandidateID < out[j].CandidateID })
	return out, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func roundPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	r := round2(v.Float64)
	return &r
}
