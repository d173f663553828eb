package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/audit"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/caller"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/metrics"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

// Service runs the assignment state machine:
// pending -> in_progress -> {scored, expired}, with cancelled reachable
// from pending and in_progress. Every transition runs in one transaction
// holding the assignment row lock.
type Service struct {
	db      *db.DB
	store   *SQLStore
	defs    definition.Reader
	engine  *scoring.Engine
	audit   audit.Sink
	metrics *metrics.Recorder
	log     *slog.Logger
	now     func() time.Time
	newSeed func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithAuditSink(a audit.Sink) Option     { return func(s *Service) { s.audit = a } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}
func WithSeedFunc(f func() string) Option { return func(s *Service) { s.newSeed = f } }

func NewService(d *db.DB, defs definition.Reader, opts ...Option) *Service {
	s := &Service{
		db:      d,
		store:   NewSQLStore(d.Driver),
		defs:    defs,
		engine:  scoring.NewEngine(),
		audit:   audit.Nop{},
		log:     slog.Default(),
		now:     time.Now,
		newSeed: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type AssignOptions struct {
	ExpiresAt        *time.Time
	TimeLimitMinutes *int // nil falls back to the test default
	TargetRole       string
	InvitationNote   string
	Extra            map[string]any
}

// AssignOutcome is the per-candidate result of Assign. Exactly one of
// Assignment and Err is set.
type AssignOutcome struct {
	CandidateID int64
	Assignment  *Assignment
	Err         error
}

// Assign creates one pending assignment per candidate. Each candidate is
// written in its own transaction: a rejected candidate does not roll back
// the others. The returned error covers failures that apply to the whole
// call, such as an unknown test.
func (s *Service) Assign(ctx context.Context, actor caller.Actor, testID int64, candidateIDs []int64, opts AssignOptions) ([]AssignOutcome, error) {
	ids := uniqueIDs(candidateIDs)
	if len(ids) == 0 {
		return nil, ErrNoCandidates
	}
	t, err := s.defs.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	limit := t.TimeLimitMinutes
	if opts.TimeLimitMinutes != nil {
		limit = *opts.TimeLimitMinutes
	}

	out := make([]AssignOutcome, 0, len(ids))
	for _, cid := range ids {
		a := Assignment{
			TestID:            t.ID,
			CandidateID:       cid,
			AssignedBy:        actor.UserID,
			Status:            StatusPending,
			AssignedAt:        s.now().UTC(),
			ExpiresAt:         opts.ExpiresAt,
			TimeLimitMinutes:  limit,
			RandomizationSeed: s.newSeed(),
			Metadata: Metadata{
				TargetRole:     opts.TargetRole,
				InvitationNote: opts.InvitationNote,
				Extra:          opts.Extra,
			},
		}
		err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
			// count and insert must not interleave with another assign
			// of the same candidate to the same test
			if err := s.db.Driver.LockPair(ctx, tx, t.ID, cid); err != nil {
				return err
			}
			n, err := s.store.CountActive(ctx, tx, t.ID, cid)
			if err != nil {
				return err
			}
			if t.AllowedAttempts != nil && n >= *t.AllowedAttempts {
				return fmt.Errorf("%w: candidate %d has %d of %d", ErrAttemptLimitReached, cid, n, *t.AllowedAttempts)
			}
			return s.store.Insert(ctx, tx, &a)
		})
		if err != nil {
			s.metrics.AssignmentRejected()
			s.log.InfoContext(ctx, "assignment rejected", "test_id", t.ID, "candidate_id", cid, "err", err)
			out = append(out, AssignOutcome{CandidateID: cid, Err: err})
			continue
		}
		s.metrics.AssignmentCreated()
		s.record(ctx, actor, audit.ActionAssignmentCreated, &a, map[string]any{
			"time_limit_minutes": a.TimeLimitMinutes,
			"target_role":        a.Metadata.TargetRole,
		})
		created := a
		out = append(out, AssignOutcome{CandidateID: cid, Assignment: &created})
	}
	return out, nil
}

// Start moves a pending assignment to in_progress and freezes its
// presentation order. Calling it again while in_progress returns the same
// snapshot without writing anything.
func (s *Service) Start(ctx context.Context, actor caller.Actor, id int64) (Assignment, Presentation, error) {
	a, t, err := s.load(ctx, actor, id)
	if err != nil {
		return Assignment{}, Presentation{}, err
	}

	var first bool
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.store.Get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		a = cur
		if a.Status == StatusInProgress {
			return nil
		}
		if t.AllowedAttempts != nil && a.AttemptsUsed >= *t.AllowedAttempts {
			return fmt.Errorf("%w: %d of %d used", ErrAttemptLimitReached, a.AttemptsUsed, *t.AllowedAttempts)
		}
		switch a.Status {
		case StatusPending:
		case StatusScored:
			return ErrAlreadyCompleted
		case StatusExpired:
			return ErrExpired
		default:
			return fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, a.Status)
		}

		now := s.now().UTC()
		if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
			return fmt.Errorf("%w: invitation closed at %s", ErrExpired, a.ExpiresAt.Format(time.RFC3339))
		}
		a.Status = StatusInProgress
		a.StartedAt = &now
		a.AttemptsUsed++
		if a.ExpiresAt == nil {
			a.ExpiresAt = a.deadline()
		}
		if a.QuestionOrder == nil {
			fo := freezeOrder(&t, a.RandomizationSeed)
			a.QuestionOrder = fo.Questions
			a.Metadata.OptionOrder = fo.Options
		}
		first = true
		return s.store.Update(ctx, tx, &a)
	})
	if err != nil {
		return Assignment{}, Presentation{}, err
	}
	if first {
		s.metrics.Started()
		s.record(ctx, actor, audit.ActionAssignmentStarted, &a, map[string]any{
			"attempts_used": a.AttemptsUsed,
		})
	}
	return a, present(&a, &t), nil
}

// Cancel is the administrative exit from pending or in_progress.
func (s *Service) Cancel(ctx context.Context, actor caller.Actor, id int64, reason string) (Assignment, error) {
	a, _, err := s.load(ctx, actor, id)
	if err != nil {
		return Assignment{}, err
	}
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.store.Get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		a = cur
		if a.Status.Terminal() {
			return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, a.Status)
		}
		a.Status = StatusCancelled
		a.Metadata.CancelReason = reason
		return s.store.Update(ctx, tx, &a)
	})
	if err != nil {
		return Assignment{}, err
	}
	s.record(ctx, actor, audit.ActionAssignmentCancelled, &a, map[string]any{"reason": reason})
	return a, nil
}

func (s *Service) Get(ctx context.Context, actor caller.Actor, id int64) (Assignment, error) {
	a, err := s.store.Get(ctx, s.db.SQL, id, false)
	if err != nil {
		return Assignment{}, err
	}
	if !visible(actor, &a) {
		return Assignment{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return a, nil
}

// List returns assignments matching opts. Candidates only ever see their own.
func (s *Service) List(ctx context.Context, actor caller.Actor, opts ListOpts) ([]Assignment, error) {
	if actor.IsCandidate() {
		cid, err := strconv.ParseInt(actor.UserID, 10, 64)
		if err != nil {
			return []Assignment{}, nil
		}
		opts.CandidateID = cid
	}
	return s.store.List(ctx, s.db.SQL, opts)
}

// Presentation replays the frozen order of a started assignment.
func (s *Service) Presentation(ctx context.Context, actor caller.Actor, id int64) (Presentation, error) {
	a, t, err := s.load(ctx, actor, id)
	if err != nil {
		return Presentation{}, err
	}
	if a.QuestionOrder == nil {
		return Presentation{}, ErrNotStarted
	}
	return present(&a, &t), nil
}

// Results returns the persisted result rows, per dimension then overall.
func (s *Service) Results(ctx context.Context, actor caller.Actor, id int64) ([]Result, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.ListResults(ctx, s.db.SQL, id)
}

// load reads the assignment and its definition outside any transaction.
func (s *Service) load(ctx context.Context, actor caller.Actor, id int64) (Assignment, definition.Test, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return Assignment{}, definition.Test{}, err
	}
	t, err := s.defs.GetTest(ctx, a.TestID)
	if err != nil {
		return Assignment{}, definition.Test{}, fmt.Errorf("assignment %d: %w", id, err)
	}
	return a, t, nil
}

// record writes an audit event. Sink failures never fail the operation.
func (s *Service) record(ctx context.Context, actor caller.Actor, action audit.Action, a *Assignment, data map[string]any) {
	if actor.RequestID != "" {
		if data == nil {
			data = map[string]any{}
		}
		data["request_id"] = actor.RequestID
	}
	e := audit.NewEvent(action, a.TestID, a.ID, a.CandidateID, actor.UserID, data)
	e.OccurredAt = s.now().UTC()
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.WarnContext(ctx, "audit record failed", "action", action, "assignment_id", a.ID, "err", err)
	}
}

func visible(actor caller.Actor, a *Assignment) bool {
	return !actor.IsCandidate() || actor.Owns(a.CandidateID)
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// IsEligibility reports whether err is a state or limit rejection rather
// than a validation or infrastructure failure.
func IsEligibility(err error) bool {
	return errors.Is(err, ErrAttemptLimitReached) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrTimeLimitExceeded) ||
		errors.Is(err, ErrInvalidTransition)
}
