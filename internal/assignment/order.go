package assignment

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
)

// frozenOrder is the presentation snapshot taken at first start.
type frozenOrder struct {
	Questions []int64
	Options   map[int64][]int64
}

// freezeOrder orders questions by base_order then id and options by
// position then id, shuffling where the test or question asks for it.
// The shuffle is driven by the assignment seed, so the same seed over the
// same definition always yields the same snapshot.
func freezeOrder(t *definition.Test, seed string) frozenOrder {
	rng := newRand(seed)

	qs := make([]*definition.Question, len(t.Questions))
	for i := range t.Questions {
		qs[i] = &t.Questions[i]
	}
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].BaseOrder != qs[j].BaseOrder {
			return qs[i].BaseOrder < qs[j].BaseOrder
		}
		return qs[i].ID < qs[j].ID
	})
	if t.RandomizeQuestions {
		rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	}

	out := frozenOrder{
		Questions: make([]int64, 0, len(qs)),
		Options:   map[int64][]int64{},
	}
	for _, q := range qs {
		out.Questions = append(out.Questions, q.ID)
		if len(q.Options) == 0 {
			continue
		}
		opts := make([]definition.Option, len(q.Options))
		copy(opts, q.Options)
		sort.SliceStable(opts, func(i, j int) bool {
			if opts[i].Position != opts[j].Position {
				return opts[i].Position < opts[j].Position
			}
			return opts[i].ID < opts[j].ID
		})
		if q.RandomizeOptions {
			rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
		}
		ids := make([]int64, len(opts))
		for i, o := range opts {
			ids[i] = o.ID
		}
		out.Options[q.ID] = ids
	}
	return out
}

func newRand(seed string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	s := h.Sum64()
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// present replays a frozen order against the definition. Questions or
// options that no longer resolve are skipped.
func present(a *Assignment, t *definition.Test) Presentation {
	p := Presentation{
		AssignmentID: a.ID,
		TestID:       t.ID,
		Title:        t.Title,
		Instructions: t.Instructions,
		Status:       a.Status,
		ExpiresAt:    a.ExpiresAt,
		Questions:    []PresentedQuestion{},
	}
	idx := t.QuestionIndex()
	for _, qid := range a.QuestionOrder {
		q, ok := idx[qid]
		if !ok {
			continue
		}
		pq := PresentedQuestion{
			ID:       q.ID,
			Code:     q.Code,
			Prompt:   q.Prompt,
			Type:     q.Type,
			Required: q.Required,
		}
		if q.DimensionID != nil {
			if d, ok := t.Dimension(*q.DimensionID); ok {
				pq.DimensionKey = d.Key
			}
		}
		for _, oid := range a.Metadata.OptionOrder[q.ID] {
			if o, ok := q.Option(oid); ok {
				pq.Options = append(pq.Options, PresentedOption{ID: o.ID, Label: o.Label, Value: o.Value})
			}
		}
		p.Questions = append(p.Questions, pq)
	}
	return p
}
