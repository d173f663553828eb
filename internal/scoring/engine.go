package scoring

import (
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
)

// DefaultNumericMax is the ceiling of a numeric question without a
// configured max_numeric.
const DefaultNumericMax = 100.0

// Points is the unweighted outcome of one question.
type Points struct {
	Raw    float64
	MaxRaw float64
}

// Strategy scores a single question kind.
type Strategy interface {
	Score(q *definition.Question, d *Draft) Points
}

// Engine routes each question to the strategy of its kind and aggregates
// question, dimension and overall totals.
type Engine struct {
	strategies [definition.NumKinds]Strategy
}

func NewEngine() *Engine {
	return &Engine{
		strategies: [definition.NumKinds]Strategy{
			definition.KindUnknown:        zeroStrategy{},
			definition.KindLikert:         singleChoiceStrategy{},
			definition.KindMultipleChoice: singleChoiceStrategy{},
			definition.KindMultiSelect:    multiSelectStrategy{},
			definition.KindNumeric:        numericStrategy{},
		},
	}
}

type QuestionScore struct {
	QuestionID       int64   `json:"question_id"`
	DimensionID      *int64  `json:"dimension_id,omitempty"`
	RawScore         float64 `json:"raw_score"`
	WeightedScore    float64 `json:"weighted_score"`
	MaxRawScore      float64 `json:"max_raw_score"`
	MaxWeightedScore float64 `json:"max_weighted_score"`
}

type DimensionScore struct {
	DimensionID      int64    `json:"dimension_id"`
	Key              string   `json:"key"`
	Name             string   `json:"name"`
	Weight           float64  `json:"weight"`
	RawScore         float64  `json:"raw_score"`
	WeightedScore    float64  `json:"weighted_score"`
	MaxRawScore      float64  `json:"max_raw_score"`
	MaxWeightedScore float64  `json:"max_weighted_score"`
	Percentile       *float64 `json:"percentile"`
	Band             *Band    `json:"band"`
}

// Summary is the overall outcome of one scoring pass; it is also what an
// assignment keeps as its result snapshot.
type Summary struct {
	TotalRawScore      float64          `json:"total_raw_score"`
	TotalWeightedScore float64          `json:"total_weighted_score"`
	MaxRawScore        float64          `json:"max_raw_score"`
	MaxWeightedScore   float64          `json:"max_weighted_score"`
	Percentile         *float64         `json:"percentile"`
	Band               *Band            `json:"band"`
	Dimensions         []DimensionScore `json:"dimensions"`
}

type Evaluation struct {
	Summary   Summary
	Questions []QuestionScore
}

type accumulator struct {
	raw, weighted, maxRaw, maxWeighted float64
}

// Evaluate scores drafts against t. Every dimension of t gets a row even
// when none of its questions were answered. The result depends only on its
// inputs, so rescoring the same payload yields identical numbers.
func (e *Engine) Evaluate(t *definition.Test, drafts []Draft) Evaluation {
	dims := make(map[int64]*accumulator, len(t.Dimensions))
	for _, d := range t.Dimensions {
		dims[d.ID] = &accumulator{}
	}
	var overall accumulator
	questions := make([]QuestionScore, 0, len(drafts))

	for i := range drafts {
		d := &drafts[i]
		q := d.Question
		p := e.strategies[q.Type.Kind()].Score(q, d)

		qs := QuestionScore{
			QuestionID:       q.ID,
			DimensionID:      q.DimensionID,
			RawScore:         p.Raw,
			WeightedScore:    p.Raw * q.Weight,
			MaxRawScore:      p.MaxRaw,
			MaxWeightedScore: p.MaxRaw * q.Weight,
		}
		questions = append(questions, qs)

		overall.raw += qs.RawScore
		overall.weighted += qs.WeightedScore
		overall.maxRaw += qs.MaxRawScore
		overall.maxWeighted += qs.MaxWeightedScore

		if q.DimensionID == nil {
			continue
		}
		acc, ok := dims[*q.DimensionID]
		if !ok {
			continue
		}
		dim, _ := t.Dimension(*q.DimensionID)
		acc.raw += qs.RawScore
		acc.maxRaw += qs.MaxRawScore
		acc.weighted += qs.WeightedScore * dim.Weight
		acc.maxWeighted += qs.MaxWeightedScore * dim.Weight
	}

	bands := t.ScoringModel.Bands
	sum := Summary{
		TotalRawScore:      round2(overall.raw),
		TotalWeightedScore: round2(overall.weighted),
		MaxRawScore:        round2(overall.maxRaw),
		MaxWeightedScore:   round2(overall.maxWeighted),
		Dimensions:         make([]DimensionScore, 0, len(t.Dimensions)),
	}
	sum.Percentile = Percentile(overall.weighted, overall.maxWeighted)
	sum.Band = Classify(sum.Percentile, bands)

	for _, d := range t.Dimensions {
		acc := dims[d.ID]
		ds := DimensionScore{
			DimensionID:      d.ID,
			Key:              d.Key,
			Name:             d.Name,
			Weight:           d.Weight,
			RawScore:         round2(acc.raw),
			WeightedScore:    round2(acc.weighted),
			MaxRawScore:      round2(acc.maxRaw),
			MaxWeightedScore: round2(acc.maxWeighted),
			Percentile:       Percentile(acc.weighted, acc.maxWeighted),
		}
		ds.Band = Classify(ds.Percentile, bands)
		sum.Dimensions = append(sum.Dimensions, ds)
	}
	return Evaluation{Summary: sum, Questions: questions}
}

// --- Strategies ---

// singleChoiceStrategy serves likert and multiple_choice questions.
type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Score(q *definition.Question, d *Draft) Points {
	var p Points
	for i, o := range q.Options {
		v := o.Score * o.Weight
		if i == 0 || v > p.MaxRaw {
			p.MaxRaw = v
		}
	}
	if d.OptionID != nil {
		if o, ok := q.Option(*d.OptionID); ok {
			p.Raw = o.Score * o.Weight
		}
	}
	return p
}

type multiSelectStrategy struct{}

func (multiSelectStrategy) Score(q *definition.Question, d *Draft) Points {
	var p Points
	for _, o := range q.Options {
		if o.Score > 0 {
			p.MaxRaw += o.Score * o.Weight
		}
	}
	for _, id := range d.SelectedOptionIDs {
		if o, ok := q.Option(id); ok {
			p.Raw += o.Score * o.Weight
		}
	}
	return p
}

type numericStrategy struct{}

func (numericStrategy) Score(q *definition.Question, d *Draft) Points {
	p := Points{MaxRaw: DefaultNumericMax}
	if q.Meta.MaxNumeric != nil {
		p.MaxRaw = *q.Meta.MaxNumeric
	}
	if d.NumericResponse != nil {
		p.Raw = *d.NumericResponse
	}
	return p
}

// zeroStrategy scores unsupported types as nothing instead of failing the
// whole submission.
type zeroStrategy struct{}

func (zeroStrategy) Score(*definition.Question, *Draft) Points { return Points{} }
