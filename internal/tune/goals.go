package tune

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region roles
// Tier is the objective class of a result.
type Tier uint8

const (
	TierOrdinary Tier = iota
	TierTop
	TierEquilibrium
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierTop:
		return "top"
	case TierEquilibrium:
		return "equilibrium"
	case TierFallback:
		return "fallback"
	}
	return "ordinary"
}

// Roles names the results that get special treatment. The fallback is always
// the questionnaire's own fallback.
type Roles struct {
	TopMarker   string `yaml:"top_marker"`  // substring marking top-tier result ids
	Equilibrium string `yaml:"equilibrium"` // id of the spread-shaped result
}

// Tier classifies id.
func (r Roles) Tier(id, fallback string) Tier {
	switch {
	case r.Equilibrium != "" && id == r.Equilibrium:
		return TierEquilibrium
	case id == fallback:
		return TierFallback
	case r.TopMarker != "" && strings.Contains(id, r.TopMarker):
		return TierTop
	}
	return TierOrdinary
}

// #endregion roles

// #region goals
// Target is a percentage goal with a dead band of ±Tolerance.
type Target struct {
	Percent   float64 `yaml:"target"`
	Tolerance float64 `yaml:"tolerance"`
	Weight    float64 `yaml:"weight,omitempty"`
}

// Goals is the objective definition. Targets overrides the tier goal of
// individual results; an override without a weight keeps the tier weight.
type Goals struct {
	Roles                  Roles             `yaml:"roles"`
	NonTop                 Target            `yaml:"non_top"`
	Top                    Target            `yaml:"top"`
	Equilibrium            Target            `yaml:"equilibrium"`
	FallbackMax            float64           `yaml:"fallback_max"`
	FallbackOverflowWeight float64           `yaml:"fallback_overflow_weight"`
	FallbackZeroPenalty    float64           `yaml:"fallback_zero_penalty"`
	ZeroHitPenalty         float64           `yaml:"zero_hit_penalty"`
	Targets                map[string]Target `yaml:"targets,omitempty"`
}

// DefaultGoals returns the stock calibration goals.
func DefaultGoals() Goals {
	return Goals{
		Roles:                  Roles{TopMarker: "_top_", Equilibrium: "potion_equilibrium"},
		NonTop:                 Target{Percent: 8.0, Tolerance: 1.0, Weight: 2.0},
		Top:                    Target{Percent: 4.25, Tolerance: 1.0, Weight: 5.0},
		Equilibrium:            Target{Percent: 2.0, Tolerance: 1.0, Weight: 80.0},
		FallbackMax:            0.05,
		FallbackOverflowWeight: 35.0,
		FallbackZeroPenalty:    400.0,
		ZeroHitPenalty:         1100.0,
	}
}

// LoadGoals reads a YAML goals file over DefaultGoals. A missing file yields
// the defaults.
func LoadGoals(path string) (Goals, error) {
	g := DefaultGoals()
	if path == "" {
		return g, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return Goals{}, fmt.Errorf("read goals: %w", err)
	}
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Goals{}, fmt.Errorf("parse goals %s: %w", path, err)
	}
	return g, nil
}

// For returns the goal of a non-fallback result.
func (g Goals) For(id string, tier Tier) Target {
	var t Target
	switch tier {
	case TierTop:
		t = g.Top
	case TierEquilibrium:
		t = g.Equilibrium
	default:
		t = g.NonTop
	}
	if o, ok := g.Targets[id]; ok {
		if o.Weight == 0 {
			o.Weight = t.Weight
		}
		t = o
	}
	return t
}

// #endregion goals

// #region objective
// Objective scores per-result counts over total samples; lower is better.
// The fallback pays only for overflowing FallbackMax and for never appearing.
// Every other result pays ZeroHitPenalty when unseen plus a quadratic penalty
// outside its dead band.
func (g Goals) Objective(ids []string, counts []int, total int, fallback string) float64 {
	score := 0.0
	for i, id := range ids {
		pct := 0.0
		if total > 0 {
			pct = float64(counts[i]) / float64(total) * 100
		}
		tier := g.Roles.Tier(id, fallback)
		if tier == TierFallback {
			if counts[i] == 0 {
				score += g.FallbackZeroPenalty
			}
			overflow := math.Max(0, pct-g.FallbackMax)
			score += math.Pow(overflow/math.Max(1e-4, g.FallbackMax), 2) * g.FallbackOverflowWeight
			continue
		}
		if counts[i] == 0 {
			score += g.ZeroHitPenalty
		}
		t := g.For(id, tier)
		overflow := math.Max(0, math.Abs(pct-t.Percent)-t.Tolerance)
		score += t.Weight * math.Pow(overflow/math.Max(1e-3, t.Tolerance), 2)
	}
	return score
}

// #endregion objective
