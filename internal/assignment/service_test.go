package assignment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/assignment"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/audit"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/caller"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/dbtest"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/logging"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

var (
	t0        = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	recruiter = caller.Actor{UserID: "recruiter-1", Role: caller.RoleRecruiter}
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func candidate(id int64) caller.Actor {
	return caller.Actor{UserID: fmt.Sprint(id), Role: caller.RoleCandidate}
}

func ptr[T any](v T) *T { return &v }

type memSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memSink) Record(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memSink) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []audit.Action{}
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

type failingSink struct{}

func (failingSink) Record(context.Context, audit.Event) error { return errors.New("sink down") }

type fixture struct {
	db    *db.DB
	defs  *definition.SQLStore
	svc   *assignment.Service
	clock *clock
	audit *memSink
}

func newFixture(t *testing.T, opts ...assignment.Option) *fixture {
	t.Helper()
	d := dbtest.Open(t)
	f := &fixture{
		db:    d,
		defs:  definition.NewSQLStore(d),
		clock: &clock{t: t0},
		audit: &memSink{},
	}
	var seq atomic.Int64
	base := []assignment.Option{
		assignment.WithClock(f.clock.Now),
		assignment.WithAuditSink(f.audit),
		assignment.WithLogger(logging.Discard()),
		assignment.WithSeedFunc(func() string { return fmt.Sprintf("seed-%d", seq.Add(1)) }),
	}
	f.svc = assignment.NewService(d, f.defs, append(base, opts...)...)
	return f
}

func (f *fixture) createTest(t *testing.T, in definition.NewTest) definition.Test {
	t.Helper()
	created, err := f.defs.CreateTest(context.Background(), in)
	require.NoError(t, err)
	return created
}

func (f *fixture) assignOne(t *testing.T, testID, candidateID int64) assignment.Assignment {
	t.Helper()
	out, err := f.svc.Assign(context.Background(), recruiter, testID, []int64{candidateID}, assignment.AssignOptions{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NoError(t, out[0].Err)
	return *out[0].Assignment
}

// communicationTest has one dimension (weight 1.5) and one required
// multiple_choice question (weight 2) with options scored 1..5.
func communicationTest() definition.NewTest {
	in := definition.NewTest{
		Title:            "Communication screen",
		TimeLimitMinutes: 25,
		Dimensions: []definition.NewDimension{
			{Key: "communication", Name: "Communication", Weight: ptr(1.5)},
		},
		Questions: []definition.NewQuestion{{
			Code: "COMM-1", Type: definition.TypeMultipleChoice, DimensionKey: "communication",
			Weight: ptr(2.0), Required: true,
		}},
	}
	for i := 1; i <= 5; i++ {
		in.Questions[0].Options = append(in.Questions[0].Options, definition.NewOption{
			Label: fmt.Sprintf("level %d", i), Score: float64(i),
		})
	}
	return in
}

func lastOption(tst definition.Test) []scoring.ResponseInput {
	q := tst.Questions[0]
	return []scoring.ResponseInput{{QuestionID: q.ID, OptionID: ptr(q.Options[len(q.Options)-1].ID)}}
}

func TestAssign_CreatesPendingAssignmentPerCandidate(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())

	out, err := f.svc.Assign(context.Background(), recruiter, tst.ID, []int64{7, 8, 7}, assignment.AssignOptions{
		TargetRole:     "support engineer",
		InvitationNote: "good luck",
	})
	require.NoError(t, err)
	require.Len(t, out, 2, "duplicate candidate ids collapse")

	seeds := map[string]bool{}
	for _, o := range out {
		require.NoError(t, o.Err)
		a := o.Assignment
		assert.Equal(t, assignment.StatusPending, a.Status)
		assert.Equal(t, t0, a.AssignedAt)
		assert.Equal(t, 25, a.TimeLimitMinutes, "falls back to the test default")
		assert.Equal(t, "recruiter-1", a.AssignedBy)
		assert.Equal(t, "support engineer", a.Metadata.TargetRole)
		assert.Nil(t, a.StartedAt)
		assert.Nil(t, a.QuestionOrder)
		seeds[a.RandomizationSeed] = true
	}
	assert.Len(t, seeds, 2)
	assert.Equal(t, []audit.Action{audit.ActionAssignmentCreated, audit.ActionAssignmentCreated}, f.audit.actions())
}

func TestAssign_OverridesTimeLimit(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())

	out, err := f.svc.Assign(context.Background(), recruiter, tst.ID, []int64{7}, assignment.AssignOptions{
		TimeLimitMinutes: ptr(0),
		ExpiresAt:        ptr(t0.Add(48 * time.Hour)),
	})
	require.NoError(t, err)
	require.NoError(t, out[0].Err)
	assert.Equal(t, 0, out[0].Assignment.TimeLimitMinutes)

	got, err := f.svc.Get(context.Background(), recruiter, out[0].Assignment.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, t0.Add(48*time.Hour), *got.ExpiresAt)
}

func TestAssign_PartialFailureKeepsOtherCandidates(t *testing.T) {
	f := newFixture(t)
	in := communicationTest()
	in.AllowedAttempts = ptr(1)
	tst := f.createTest(t, in)
	f.assignOne(t, tst.ID, 7)

	out, err := f.svc.Assign(context.Background(), recruiter, tst.ID, []int64{7, 8}, assignment.AssignOptions{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.ErrorIs(t, out[0].Err, assignment.ErrAttemptLimitReached)
	assert.Nil(t, out[0].Assignment)
	require.NoError(t, out[1].Err)
	assert.Equal(t, int64(8), out[1].Assignment.CandidateID)

	all, err := f.svc.List(context.Background(), recruiter, assignment.ListOpts{TestID: tst.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAssign_ConcurrentAssignsRespectAttemptCap(t *testing.T) {
	f := newFixture(t)
	in := communicationTest()
	in.AllowedAttempts = ptr(1)
	tst := f.createTest(t, in)

	var wg sync.WaitGroup
	outs := make([][]assignment.AssignOutcome, 4)
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.svc.Assign(context.Background(), recruiter, tst.ID, []int64{7}, assignment.AssignOptions{})
			assert.NoError(t, err)
			outs[i] = out
		}(i)
	}
	wg.Wait()

	created := 0
	for _, out := range outs {
		require.Len(t, out, 1)
		if out[0].Err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, out[0].Err, assignment.ErrAttemptLimitReached)
	}
	assert.Equal(t, 1, created)

	all, err := f.svc.List(context.Background(), recruiter, assignment.ListOpts{TestID: tst.ID, CandidateID: 7})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssign_CancelledAssignmentsDoNotCountAgainstAttempts(t *testing.T) {
	f := newFixture(t)
	in := communicationTest()
	in.AllowedAttempts = ptr(1)
	tst := f.createTest(t, in)
	a := f.assignOne(t, tst.ID, 7)

	_, err := f.svc.Cancel(context.Background(), recruiter, a.ID, "wrong role")
	require.NoError(t, err)
	f.assignOne(t, tst.ID, 7)
}

func TestAssign_RejectsWholeCall(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assign(context.Background(), recruiter, 999, []int64{1}, assignment.AssignOptions{})
	assert.ErrorIs(t, err, definition.ErrTestNotFound)

	tst := f.createTest(t, communicationTest())
	_, err = f.svc.Assign(context.Background(), recruiter, tst.ID, nil, assignment.AssignOptions{})
	assert.ErrorIs(t, err, assignment.ErrNoCandidates)
}

func TestStart_FreezesOrderAndResumesIdempotently(t *testing.T) {
	f := newFixture(t)
	in := definition.NewTest{
		Title:              "Shuffled",
		TimeLimitMinutes:   30,
		RandomizeQuestions: true,
	}
	for i := 0; i < 8; i++ {
		in.Questions = append(in.Questions, definition.NewQuestion{
			Code: fmt.Sprintf("L-%d", i), Type: definition.TypeLikert, RandomizeOptions: true,
			Options: []definition.NewOption{{Label: "a", Score: 1}, {Label: "b", Score: 2}, {Label: "c", Score: 3}, {Label: "d", Score: 4}},
		})
	}
	tst := f.createTest(t, in)
	a := f.assignOne(t, tst.ID, 7)

	first, pres1, err := f.svc.Start(context.Background(), candidate(7), a.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusInProgress, first.Status)
	assert.Equal(t, 1, first.AttemptsUsed)
	require.NotNil(t, first.StartedAt)
	assert.Equal(t, t0, *first.StartedAt)
	require.NotNil(t, first.ExpiresAt)
	assert.Equal(t, t0.Add(30*time.Minute), *first.ExpiresAt)
	assert.Len(t, first.QuestionOrder, 8)
	assert.Len(t, first.Metadata.OptionOrder, 8)

	f.clock.Advance(5 * time.Minute)
	second, pres2, err := f.svc.Start(context.Background(), candidate(7), a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.QuestionOrder, second.QuestionOrder)
	assert.Equal(t, first.Metadata.OptionOrder, second.Metadata.OptionOrder)
	assert.Equal(t, 1, second.AttemptsUsed)
	assert.Equal(t, *first.StartedAt, *second.StartedAt)
	assert.Equal(t, pres1, pres2)

	stored, err := f.svc.Get(context.Background(), recruiter, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.QuestionOrder, stored.QuestionOrder)
	assert.Equal(t, first.Metadata.OptionOrder, stored.Metadata.OptionOrder)

	require.Len(t, pres1.Questions, 8)
	for i, q := range pres1.Questions {
		assert.Equal(t, first.QuestionOrder[i], q.ID)
		ids := []int64{}
		for _, o := range q.Options {
			ids = append(ids, o.ID)
		}
		assert.Equal(t, first.Metadata.OptionOrder[q.ID], ids)
	}
	assert.Equal(t, []audit.Action{audit.ActionAssignmentCreated, audit.ActionAssignmentStarted}, f.audit.actions())
}

func TestStart_SecondAttemptRejectedWhenCapIsOne(t *testing.T) {
	f := newFixture(t)
	in := communicationTest()
	in.AllowedAttempts = ptr(1)
	tst := f.createTest(t, in)
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()

	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, candidate(7), a.ID, lastOption(tst), assignment.SubmitOptions{})
	require.NoError(t, err)

	_, _, err = f.svc.Start(ctx, candidate(7), a.ID)
	assert.ErrorIs(t, err, assignment.ErrAttemptLimitReached)
}

func TestStart_RejectsTerminalAndClosedInvitations(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	ctx := context.Background()

	a := f.assignOne(t, tst.ID, 7)
	_, err := f.svc.Cancel(ctx, recruiter, a.ID, "")
	require.NoError(t, err)
	_, _, err = f.svc.Start(ctx, candidate(7), a.ID)
	assert.ErrorIs(t, err, assignment.ErrInvalidTransition)

	out, err := f.svc.Assign(ctx, recruiter, tst.ID, []int64{8}, assignment.AssignOptions{ExpiresAt: ptr(t0.Add(time.Hour))})
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	_, _, err = f.svc.Start(ctx, candidate(8), out[0].Assignment.ID)
	assert.ErrorIs(t, err, assignment.ErrExpired)
}

func TestSubmit_ScoresAndPersistsResults(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()

	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	res, err := f.svc.Submit(ctx, candidate(7), a.ID, lastOption(tst), assignment.SubmitOptions{
		Metadata: map[string]any{"source": "web"},
	})
	require.NoError(t, err)

	sum := res.Summary
	assert.Equal(t, 5.0, sum.TotalRawScore)
	assert.Equal(t, 10.0, sum.TotalWeightedScore)
	assert.Equal(t, 10.0, sum.MaxWeightedScore)
	require.NotNil(t, sum.Percentile)
	assert.Equal(t, 100.0, *sum.Percentile)
	require.NotNil(t, sum.Band)
	assert.Equal(t, scoring.BandHigh, *sum.Band)

	require.Len(t, sum.Dimensions, 1)
	dim := sum.Dimensions[0]
	assert.Equal(t, 5.0, dim.RawScore)
	assert.Equal(t, 15.0, dim.WeightedScore, "question and dimension weights both apply")
	assert.Equal(t, 15.0, dim.MaxWeightedScore)

	got := res.Assignment
	assert.Equal(t, assignment.StatusScored, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, t0.Add(10*time.Minute), *got.CompletedAt)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, int64(600), *got.DurationSeconds)
	assert.Equal(t, "web", got.Metadata.Extra["source"])
	assert.False(t, got.Metadata.ForceSubmitted)
	require.NotNil(t, got.ResultSnapshot)
	assert.Equal(t, sum, *got.ResultSnapshot)

	require.Len(t, res.Responses, 1)
	assert.Equal(t, "COMM-1", res.Responses[0].Question.Code)
	require.NotNil(t, res.Responses[0].Option)
	assert.Equal(t, "level 5", res.Responses[0].Option.Label)

	rows, err := f.svc.Results(ctx, recruiter, a.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].DimensionID)
	assert.Equal(t, tst.Dimensions[0].ID, *rows[0].DimensionID)
	assert.Equal(t, 15.0, rows[0].WeightedScore)
	assert.Equal(t, 15.0, rows[0].Meta.MaxWeightedScore)
	assert.Equal(t, "communication", rows[0].Meta.DimensionKey)
	assert.Nil(t, rows[1].DimensionID, "overall row")
	assert.Equal(t, 10.0, rows[1].WeightedScore)

	stored, err := f.svc.Get(ctx, recruiter, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResultSnapshot)
	assert.Equal(t, sum, *stored.ResultSnapshot)

	assert.Equal(t, []audit.Action{
		audit.ActionAssignmentCreated, audit.ActionAssignmentStarted, audit.ActionAssignmentSubmitted,
	}, f.audit.actions())
}

func TestSubmit_ForcedResubmissionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()
	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)

	payload := lastOption(tst)
	_, err = f.svc.Submit(ctx, candidate(7), a.ID, payload, assignment.SubmitOptions{})
	require.NoError(t, err)
	before, err := f.svc.Results(ctx, recruiter, a.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, candidate(7), a.ID, payload, assignment.SubmitOptions{})
	assert.ErrorIs(t, err, assignment.ErrAlreadyCompleted)

	res, err := f.svc.Submit(ctx, recruiter, a.ID, payload, assignment.SubmitOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, res.Assignment.Metadata.ForceSubmitted)
	assert.Len(t, res.Responses, 1, "resubmission overwrites the response")

	after, err := f.svc.Results(ctx, recruiter, a.ID)
	require.NoError(t, err)
	assert.Equal(t, withoutIDs(before), withoutIDs(after))
}

func TestSubmit_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()
	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(ctx, candidate(7), a.ID, lastOption(tst), assignment.SubmitOptions{})
		}(i)
	}
	wg.Wait()

	var scored, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			scored++
		case errors.Is(err, assignment.ErrAlreadyCompleted):
			rejected++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	assert.Equal(t, 1, scored)
	assert.Equal(t, 1, rejected)

	rows, err := f.svc.Results(ctx, recruiter, a.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "one dimension row and one overall row")

	submitted := 0
	for _, act := range f.audit.actions() {
		if act == audit.ActionAssignmentSubmitted {
			submitted++
		}
	}
	assert.Equal(t, 1, submitted)
}

func withoutIDs(rs []assignment.Result) []assignment.Result {
	out := make([]assignment.Result, len(rs))
	for i, r := range rs {
		r.ID = 0
		out[i] = r
	}
	return out
}

func TestSubmit_UnknownQuestionWritesNothing(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	other := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()
	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)

	payload := append(lastOption(tst), lastOption(other)...)
	_, err = f.svc.Submit(ctx, candidate(7), a.ID, payload, assignment.SubmitOptions{})
	assert.ErrorIs(t, err, scoring.ErrInvalidQuestion)

	got, err := f.svc.Get(ctx, recruiter, a.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusInProgress, got.Status)
	assert.Nil(t, got.ResultSnapshot)

	var n int
	require.NoError(t, f.db.SQL.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, f.db.SQL.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n))
	assert.Zero(t, n)
}

func TestSubmit_MissingRequiredListsCodes(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()
	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, candidate(7), a.ID, nil, assignment.SubmitOptions{})
	require.ErrorIs(t, err, scoring.ErrMissingRequired)
	var missing *scoring.MissingResponsesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"COMM-1"}, missing.Codes)
}

func TestSubmit_TimeLimitExceededExpiresAssignment(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()
	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	res, err := f.svc.Submit(ctx, candidate(7), a.ID, lastOption(tst), assignment.SubmitOptions{})
	require.ErrorIs(t, err, assignment.ErrTimeLimitExceeded)
	assert.Equal(t, assignment.StatusExpired, res.Assignment.Status)

	got, err := f.svc.Get(ctx, recruiter, a.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusExpired, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, t0.Add(30*time.Minute), *got.CompletedAt)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, int64(1800), *got.DurationSeconds)

	var n int
	require.NoError(t, f.db.SQL.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n))
	assert.Zero(t, n, "expired submissions are not scored")

	_, err = f.svc.Submit(ctx, candidate(7), a.ID, lastOption(tst), assignment.SubmitOptions{})
	assert.ErrorIs(t, err, assignment.ErrExpired)

	forced, err := f.svc.Submit(ctx, recruiter, a.ID, lastOption(tst), assignment.SubmitOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusScored, forced.Assignment.Status)
	assert.True(t, forced.Assignment.Metadata.ForceSubmitted)

	assert.Contains(t, f.audit.actions(), audit.ActionAssignmentExpired)
}

func TestSubmit_Guards(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	ctx := context.Background()

	pending := f.assignOne(t, tst.ID, 7)
	_, err := f.svc.Submit(ctx, candidate(7), pending.ID, lastOption(tst), assignment.SubmitOptions{})
	assert.ErrorIs(t, err, assignment.ErrNotStarted)
	_, err = f.svc.Submit(ctx, recruiter, pending.ID, lastOption(tst), assignment.SubmitOptions{Force: true})
	assert.ErrorIs(t, err, assignment.ErrNotStarted, "force does not skip the start requirement")

	_, err = f.svc.Cancel(ctx, recruiter, pending.ID, "duplicate")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, recruiter, pending.ID, lastOption(tst), assignment.SubmitOptions{Force: true})
	assert.ErrorIs(t, err, assignment.ErrInvalidTransition)

	_, err = f.svc.Submit(ctx, recruiter, 4242, lastOption(tst), assignment.SubmitOptions{})
	assert.ErrorIs(t, err, assignment.ErrNotFound)
}

func TestCancel_OnlyFromOpenStates(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()

	got, err := f.svc.Cancel(ctx, recruiter, a.ID, "position filled")
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusCancelled, got.Status)
	assert.Equal(t, "position filled", got.Metadata.CancelReason)

	_, err = f.svc.Cancel(ctx, recruiter, a.ID, "again")
	assert.ErrorIs(t, err, assignment.ErrInvalidTransition)
	assert.Equal(t, audit.ActionAssignmentCancelled, f.audit.actions()[1])

	done := f.assignOne(t, tst.ID, 8)
	_, _, err = f.svc.Start(ctx, candidate(8), done.ID)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, candidate(8), done.ID, lastOption(tst), assignment.SubmitOptions{})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, recruiter, done.ID, "too late")
	assert.ErrorIs(t, err, assignment.ErrInvalidTransition)
}

func TestStatusTerminal(t *testing.T) {
	for s, want := range map[assignment.Status]bool{
		assignment.StatusPending:    false,
		assignment.StatusInProgress: false,
		assignment.StatusScored:     true,
		assignment.StatusExpired:    true,
		assignment.StatusCancelled:  true,
	} {
		assert.Equal(t, want, s.Terminal(), s)
	}
}

func TestCandidatesOnlySeeTheirOwnAssignments(t *testing.T) {
	f := newFixture(t)
	tst := f.createTest(t, communicationTest())
	mine := f.assignOne(t, tst.ID, 7)
	theirs := f.assignOne(t, tst.ID, 8)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, candidate(7), theirs.ID)
	assert.ErrorIs(t, err, assignment.ErrNotFound)
	_, _, err = f.svc.Start(ctx, candidate(7), theirs.ID)
	assert.ErrorIs(t, err, assignment.ErrNotFound)

	list, err := f.svc.List(ctx, candidate(7), assignment.ListOpts{TestID: tst.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.svc.Presentation(ctx, candidate(7), mine.ID)
	assert.ErrorIs(t, err, assignment.ErrNotStarted)
}

func TestAuditFailureDoesNotFailOperations(t *testing.T) {
	f := newFixture(t, assignment.WithAuditSink(failingSink{}))
	tst := f.createTest(t, communicationTest())
	a := f.assignOne(t, tst.ID, 7)
	ctx := context.Background()

	_, _, err := f.svc.Start(ctx, candidate(7), a.ID)
	require.NoError(t, err)
	res, err := f.svc.Submit(ctx, candidate(7), a.ID, lastOption(tst), assignment.SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusScored, res.Assignment.Status)
}

func TestSQLAuditSinkRecordsLifecycle(t *testing.T) {
	f := newFixture(t)
	sink := audit.NewSQLSink(f.db.SQL)
	svc := assignment.NewService(f.db, f.defs,
		assignment.WithClock(f.clock.Now),
		assignment.WithAuditSink(sink),
		assignment.WithLogger(logging.Discard()),
	)
	tst := f.createTest(t, communicationTest())
	ctx := context.Background()

	out, err := svc.Assign(ctx, recruiter, tst.ID, []int64{7}, assignment.AssignOptions{})
	require.NoError(t, err)
	id := out[0].Assignment.ID
	_, _, err = svc.Start(ctx, candidate(7), id)
	require.NoError(t, err)

	events, err := sink.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionAssignmentCreated, events[0].Action)
	assert.Equal(t, "recruiter-1", events[0].ActorID)
	assert.Equal(t, audit.ActionAssignmentStarted, events[1].Action)
	assert.Equal(t, "7", events[1].ActorID)
}
