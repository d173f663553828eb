package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/audit"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/caller"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

type SubmitOptions struct {
	Force    bool
	Metadata map[string]any
}

type SubmitResult struct {
	Assignment Assignment       `json:"assignment"`
	Summary    scoring.Summary  `json:"summary"`
	Responses  []StoredResponse `json:"responses"`
}

// Submit scores payload and moves the assignment to scored. A submission
// past the time limit is not scored: the assignment is marked expired and
// that transition is committed before ErrTimeLimitExceeded is returned.
// Force skips the expiry, completion and time limit guards, which makes a
// forced resubmission a full rescore.
func (s *Service) Submit(ctx context.Context, actor caller.Actor, id int64, payload []scoring.ResponseInput, opts SubmitOptions) (SubmitResult, error) {
	a, t, err := s.load(ctx, actor, id)
	if err != nil {
		s.metrics.Submission("error")
		return SubmitResult{}, err
	}

	var (
		res       SubmitResult
		timedOut  bool
		startedAt = time.Now()
	)
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.store.Get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		a = cur
		now := s.now().UTC()

		switch {
		case a.Status == StatusExpired && !opts.Force:
			return ErrExpired
		case a.Status == StatusScored && !opts.Force:
			return ErrAlreadyCompleted
		case a.Status == StatusCancelled:
			return fmt.Errorf("%w: assignment is cancelled", ErrInvalidTransition)
		case a.StartedAt == nil:
			return ErrNotStarted
		}
		if dl := a.deadline(); dl != nil && now.After(*dl) && !opts.Force {
			a.Status = StatusExpired
			a.CompletedAt = &now
			a.DurationSeconds = elapsed(a.StartedAt, now)
			if err := s.store.Update(ctx, tx, &a); err != nil {
				return err
			}
			timedOut = true
			return nil
		}

		res, err = s.evaluate(ctx, tx, &a, &t, payload, now)
		if err != nil {
			return err
		}
		a.Status = StatusScored
		a.CompletedAt = &now
		a.DurationSeconds = elapsed(a.StartedAt, now)
		a.ResultSnapshot = &res.Summary
		if len(opts.Metadata) > 0 {
			if a.Metadata.Extra == nil {
				a.Metadata.Extra = map[string]any{}
			}
			for k, v := range opts.Metadata {
				a.Metadata.Extra[k] = v
			}
		}
		if opts.Force {
			a.Metadata.ForceSubmitted = true
		}
		if err := s.store.Update(ctx, tx, &a); err != nil {
			return err
		}
		res.Assignment = a
		return nil
	})
	if err != nil {
		if IsEligibility(err) {
			s.metrics.Submission("rejected")
		} else {
			s.metrics.Submission("error")
		}
		return SubmitResult{}, err
	}

	if timedOut {
		s.metrics.Submission("expired")
		s.record(ctx, actor, audit.ActionAssignmentExpired, &a, map[string]any{
			"duration_seconds": a.DurationSeconds,
		})
		return SubmitResult{Assignment: a}, fmt.Errorf("%w: limit was %d minutes", ErrTimeLimitExceeded, a.TimeLimitMinutes)
	}

	s.metrics.ObserveScoring(time.Since(startedAt))
	s.metrics.Submission("scored")
	data := map[string]any{
		"total_weighted_score": res.Summary.TotalWeightedScore,
		"percentile":           res.Summary.Percentile,
	}
	if opts.Force {
		data["force_submit"] = true
	}
	s.record(ctx, actor, audit.ActionAssignmentSubmitted, &a, data)
	return res, nil
}

// evaluate validates the whole payload, then upserts responses and
// replaces every result row of the assignment inside tx.
func (s *Service) evaluate(ctx context.Context, tx db.Querier, a *Assignment, t *definition.Test, payload []scoring.ResponseInput, now time.Time) (SubmitResult, error) {
	drafts, err := scoring.Normalize(t, payload)
	if err != nil {
		return SubmitResult{}, err
	}

	for i := range drafts {
		d := &drafts[i]
		r := Response{
			AssignmentID:      a.ID,
			QuestionID:        d.Question.ID,
			OptionID:          d.OptionID,
			SelectedOptionIDs: d.SelectedOptionIDs,
			NumericResponse:   d.NumericResponse,
			TextResponse:      d.TextResponse,
			TimeSpentSeconds:  d.TimeSpentSeconds,
			RespondedAt:       now,
		}
		if err := s.store.UpsertResponse(ctx, tx, &r); err != nil {
			return SubmitResult{}, fmt.Errorf("save response to question %s: %w", d.Question.RefCode(), err)
		}
	}

	ev := s.engine.Evaluate(t, drafts)
	if err := s.store.ReplaceResults(ctx, tx, a.ID, resultRows(a.ID, ev.Summary, now)); err != nil {
		return SubmitResult{}, err
	}

	stored, err := s.store.ListResponses(ctx, tx, a.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Summary: ev.Summary, Responses: resolve(t, stored)}, nil
}

// resultRows turns a summary into one row per dimension plus the overall
// row, which has no dimension.
func resultRows(assignmentID int64, sum scoring.Summary, now time.Time) []Result {
	rows := make([]Result, 0, len(sum.Dimensions)+1)
	for _, d := range sum.Dimensions {
		dimID := d.DimensionID
		rows = append(rows, Result{
			AssignmentID:  assignmentID,
			DimensionID:   &dimID,
			RawScore:      d.RawScore,
			WeightedScore: d.WeightedScore,
			Percentile:    d.Percentile,
			Band:          d.Band,
			Meta: ResultMeta{
				MaxRawScore:      d.MaxRawScore,
				MaxWeightedScore: d.MaxWeightedScore,
				DimensionKey:     d.Key,
				DimensionWeight:  d.Weight,
			},
			CreatedAt: now,
		})
	}
	rows = append(rows, Result{
		AssignmentID:  assignmentID,
		RawScore:      sum.TotalRawScore,
		WeightedScore: sum.TotalWeightedScore,
		Percentile:    sum.Percentile,
		Band:          sum.Band,
		Meta: ResultMeta{
			MaxRawScore:      sum.MaxRawScore,
			MaxWeightedScore: sum.MaxWeightedScore,
		},
		CreatedAt: now,
	})
	return rows
}

func resolve(t *definition.Test, rs []Response) []StoredResponse {
	idx := t.QuestionIndex()
	out := make([]StoredResponse, 0, len(rs))
	for _, r := range rs {
		sr := StoredResponse{Response: r, Question: idx[r.QuestionID]}
		if sr.Question != nil && r.OptionID != nil {
			if o, ok := sr.Question.Option(*r.OptionID); ok {
				sr.Option = o
			}
		}
		out = append(out, sr)
	}
	return out
}

func elapsed(from *time.Time, to time.Time) *int64 {
	if from == nil {
		return nil
	}
	d := int64(to.Sub(*from) / time.Second)
	if d < 0 {
		d = 0
	}
	return &d
}
