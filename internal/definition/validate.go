package definition

import (
	"fmt"
	"math"
	"strings"
)

// Validate checks the invariants the scorer relies on.
func (in *NewTest) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidTest)
	}
	if in.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: time_limit_minutes must be >= 0", ErrInvalidTest)
	}
	if in.AllowedAttempts != nil && *in.AllowedAttempts < 1 {
		return fmt.Errorf("%w: allowed_attempts must be >= 1 or null", ErrInvalidTest)
	}
	if err := in.ScoringModel.validate(); err != nil {
		return err
	}
	keys := make(map[string]struct{}, len(in.Dimensions))
	for i, d := range in.Dimensions {
		if strings.TrimSpace(d.Key) == "" {
			return fmt.Errorf("%w: dimensions[%d]: key required", ErrInvalidTest, i)
		}
		if _, dup := keys[d.Key]; dup {
			return fmt.Errorf("%w: duplicate dimension key %q", ErrInvalidTest, d.Key)
		}
		keys[d.Key] = struct{}{}
		if d.Weight != nil && *d.Weight < 0 {
			return fmt.Errorf("%w: dimension %q: weight must be >= 0", ErrInvalidTest, d.Key)
		}
	}
	codes := map[string]struct{}{}
	for i, q := range in.Questions {
		if !q.Type.Valid() {
			return fmt.Errorf("%w: questions[%d]: unsupported question_type %q", ErrInvalidTest, i, q.Type)
		}
		if q.DimensionKey != "" {
			if _, ok := keys[q.DimensionKey]; !ok {
				return fmt.Errorf("%w: questions[%d]: unknown dimension_key %q", ErrInvalidTest, i, q.DimensionKey)
			}
		}
		if q.Code != "" {
			if _, dup := codes[q.Code]; dup {
				return fmt.Errorf("%w: duplicate question code %q", ErrInvalidTest, q.Code)
			}
			codes[q.Code] = struct{}{}
		}
		if q.Weight != nil && *q.Weight < 0 {
			return fmt.Errorf("%w: questions[%d]: weight must be >= 0", ErrInvalidTest, i)
		}
		if q.Type.Kind().HasOptions() && len(q.Options) == 0 {
			return fmt.Errorf("%w: questions[%d]: %s requires options", ErrInvalidTest, i, q.Type)
		}
		for j, o := range q.Options {
			if strings.TrimSpace(o.Label) == "" {
				return fmt.Errorf("%w: questions[%d].options[%d]: label required", ErrInvalidTest, i, j)
			}
			if o.Weight != nil && *o.Weight < 0 {
				return fmt.Errorf("%w: questions[%d].options[%d]: weight must be >= 0", ErrInvalidTest, i, j)
			}
		}
	}
	return nil
}

// validate requires labelled cut-offs within 0..100 and a floor band at 0
// so that every percentile lands in some band. An empty model uses the
// scorer's defaults.
func (m ScoringModel) validate() error {
	if len(m.Bands) == 0 {
		return nil
	}
	labels := make(map[string]struct{}, len(m.Bands))
	floor := false
	for i, b := range m.Bands {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("%w: scoring_model.bands[%d]: label required", ErrInvalidTest, i)
		}
		if _, dup := labels[b.Label]; dup {
			return fmt.Errorf("%w: duplicate band label %q", ErrInvalidTest, b.Label)
		}
		labels[b.Label] = struct{}{}
		if math.IsNaN(b.Min) || b.Min < 0 || b.Min > 100 {
			return fmt.Errorf("%w: band %q: min must be within 0..100", ErrInvalidTest, b.Label)
		}
		if b.Min == 0 {
			floor = true
		}
	}
	if !floor {
		return fmt.Errorf("%w: scoring_model.bands needs a band with min 0", ErrInvalidTest)
	}
	return nil
}

func weightOr1(w *float64) float64 {
	if w == nil {
		return 1
	}
	return *w
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
