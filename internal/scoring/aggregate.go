package scoring

import "math"

// Component weights. They sum to 1.0; skill signals dominate, experience
// duration comes second, and the four narrative signals share the rest.
const (
	weightSkillMatch         = 0.25
	weightSkillContext       = 0.15
	weightExperienceDuration = 0.20
	weightImpact             = 0.10
	weightProject            = 0.10
	weightEducation          = 0.10
	weightRelevance          = 0.10
)

// Density adjustment: candidates strong across most components get a bonus,
// candidates with only a couple of strong components get a penalty.
const (
	densityComponentFloor = 0.3
	densityBonusMinCount  = 5
	densityPenaltyMax     = 2
	densityBonusFactor    = 1.1
	densityPenaltyFactor  = 0.9
)

// AggregatedScore is the final calibrated rating derived from component
// scores. PerComponent010 reflects the raw component values scaled to 0-10;
// the density adjustment applies only to the aggregate.
type AggregatedScore struct {
	Score0to100     float64            `json:"score_0_100"`
	Score0to10      float64            `json:"score_0_10"`
	PerComponent010 map[string]float64 `json:"per_component_0_10"`
	WeightsUsed     map[string]float64 `json:"weights_used"`
}

// Aggregate combines the seven component scores into the final rating: a
// fixed weighted sum, the density bonus or penalty, then scaling to 0-100 and
// 0-10. Pure numeric transform, no failure modes.
func Aggregate(cs ComponentScores) AggregatedScore {
	raw := weightSkillMatch*cs.SkillMatch +
		weightSkillContext*cs.SkillContext +
		weightExperienceDuration*cs.ExperienceDuration +
		weightImpact*cs.Impact +
		weightProject*cs.Project +
		weightEducation*cs.Education +
		weightRelevance*cs.Relevance

	components := []float64{
		cs.SkillMatch, cs.SkillContext, cs.ExperienceDuration,
		cs.Impact, cs.Project, cs.Education, cs.Relevance,
	}
	strong := 0
	for _, score := range components {
		if score > densityComponentFloor {
			strong++
		}
	}
	switch {
	case strong >= densityBonusMinCount:
		raw *= densityBonusFactor
	case strong <= densityPenaltyMax:
		raw *= densityPenaltyFactor
	}

	score0to100 := math.Min(100.0, raw*100)

	return AggregatedScore{
		Score0to100: roundTo(score0to100, 1),
		Score0to10:  roundTo(score0to100/10.0, 2),
		PerComponent010: map[string]float64{
			"skill_match_score":         roundTo(cs.SkillMatch*10, 1),
			"skill_context_score":       roundTo(cs.SkillContext*10, 1),
			"experience_duration_score": roundTo(cs.ExperienceDuration*10, 1),
			"impact_score":              roundTo(cs.Impact*10, 1),
			"project_score":             roundTo(cs.Project*10, 1),
			"education_score":           roundTo(cs.Education*10, 1),
			"relevance_score":           roundTo(cs.Relevance*10, 1),
		},
		WeightsUsed: map[string]float64{
			"skill_match_score":         weightSkillMatch,
			"skill_context_score":       weightSkillContext,
			"experience_duration_score": weightExperienceDuration,
			"impact_score":              weightImpact,
			"project_score":             weightProject,
			"education_score":           weightEducation,
			"relevance_score":           weightRelevance,
		},
	}
}

func roundTo(x float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(x*shift) / shift
}
