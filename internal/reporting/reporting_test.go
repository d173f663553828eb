package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/assignment"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/caller"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/dbtest"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/logging"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/reporting"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/scoring"
)

func likertTest() definition.NewTest {
	opts := []definition.NewOption{}
	for _, s := range []float64{1, 2, 3, 4} {
		opts = append(opts, definition.NewOption{Label: "x", Score: s})
	}
	return definition.NewTest{
		Title:      "Team fit",
		Dimensions: []definition.NewDimension{{Key: "team", Name: "Team"}},
		Questions: []definition.NewQuestion{
			{Code: "T-1", Type: definition.TypeLikert, DimensionKey: "team", Required: true, Options: opts},
		},
	}
}

// seed creates one test and scores three assignments: two engineers
// answering 4 and 2, one designer answering 3. A fourth assignment stays
// pending.
func seed(t *testing.T) (*reporting.Aggregator, definition.Test) {
	t.Helper()
	ctx := context.Background()
	d := dbtest.Open(t)
	defs := definition.NewSQLStore(d)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := assignment.NewService(d, defs,
		assignment.WithClock(func() time.Time { return now }),
		assignment.WithLogger(logging.Discard()),
	)
	tst, err := defs.CreateTest(ctx, likertTest())
	require.NoError(t, err)
	q := tst.Questions[0]

	take := func(candidateID int64, role string, optionIdx int) {
		out, err := svc.Assign(ctx, caller.System, tst.ID, []int64{candidateID}, assignment.AssignOptions{TargetRole: role})
		require.NoError(t, err)
		require.NoError(t, out[0].Err)
		id := out[0].Assignment.ID
		_, _, err = svc.Start(ctx, caller.System, id)
		require.NoError(t, err)
		_, err = svc.Submit(ctx, caller.System, id, []scoring.ResponseInput{
			{QuestionID: q.ID, OptionID: &q.Options[optionIdx].ID},
		}, assignment.SubmitOptions{})
		require.NoError(t, err)
	}
	take(1, "engineer", 3)
	take(2, "engineer", 1)
	take(1, "designer", 2)

	_, err = svc.Assign(ctx, caller.System, tst.ID, []int64{3}, assignment.AssignOptions{TargetRole: "engineer"})
	require.NoError(t, err)
	return reporting.New(d), tst
}

func TestByTest(t *testing.T) {
	agg, tst := seed(t)
	got, err := agg.ByTest(context.Background(), reporting.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, tst.ID, s.TestID)
	assert.Equal(t, 4, s.AssignmentCount)
	assert.Equal(t, 3, s.CandidateCount)
	assert.Equal(t, 3, s.ScoredCount)
	require.NotNil(t, s.AverageWeightedScore)
	assert.Equal(t, 3.0, *s.AverageWeightedScore)

	none, err := agg.ByTest(context.Background(), reporting.Filter{TestID: tst.ID + 1})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestByRole(t *testing.T) {
	agg, _ := seed(t)
	got, err := agg.ByRole(context.Background(), reporting.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "designer", got[0].TargetRole)
	assert.Equal(t, 1, got[0].AssignmentCount)
	assert.Equal(t, 3.0, *got[0].AverageWeightedScore)

	assert.Equal(t, "engineer", got[1].TargetRole)
	assert.Equal(t, 2, got[1].AssignmentCount, "pending assignments have no snapshot")
	assert.Equal(t, 3.0, *got[1].AverageWeightedScore)
}

func TestByCandidate(t *testing.T) {
	agg, tst := seed(t)
	got, err := agg.ByCandidate(context.Background(), reporting.Filter{TestID: tst.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].CandidateID)
	assert.Equal(t, 2, got[0].AssignmentCount)
	require.NotNil(t, got[0].AveragePercentile)
	assert.Equal(t, 87.5, *got[0].AveragePercentile)

	assert.Equal(t, int64(2), got[1].CandidateID)
	assert.Equal(t, 50.0, *got[1].AveragePercentile)
}
