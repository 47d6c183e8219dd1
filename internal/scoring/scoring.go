// Package scoring computes composite evaluation notes from rated criteria.
//
// Two weighting schemes coexist in the product: the evaluation grid uses a
// configurable weighted average over whichever criteria the tutor has rated,
// while the quiz-merge flow uses a fixed four-criterion blend that floors
// unrated criteria so a quiz-only record still yields a meaningful note.
// They are kept as two named strategies; the caller picks one explicitly.
package scoring

import "math"

// Named criteria. These match the JSON field names of the persisted record.
const (
	Clarity             = "clarity"
	CommitFrequency     = "commitFrequency"
	DeadlineRespect     = "deadlineRespect"
	Efficiency          = "efficiency"
	CodePerformance     = "codePerformance"
	PlagiarismDetection = "plagiarismDetection"
	Collaboration       = "collaboration"
	TestsValidation     = "testsValidation"
	ReportQuality       = "reportQuality"
	Quiz                = "quiz"
)

// Weights maps criterion names to weights. A negative weight marks a
// penalty criterion: its raw value (a 0-1 flag) multiplies the weight
// directly instead of being rescaled from the 1-5 scale.
type Weights map[string]float64

// GridWeights is the default table for tutor grid evaluations.
var GridWeights = Weights{
	Clarity:             1,
	CommitFrequency:     1,
	DeadlineRespect:     1.5,
	Efficiency:          1.5,
	CodePerformance:     2,
	PlagiarismDetection: -3,
	Collaboration:       1,
	TestsValidation:     1.5,
	ReportQuality:       1.5,
}

// QuizBlendWeights is the fixed table used when merging a quiz score into a
// record.
var QuizBlendWeights = Weights{
	CodePerformance: 2,
	CommitFrequency: 1,
	ReportQuality:   1.5,
	Quiz:            1.5,
}

// Criteria is a name-to-value view of one member's ratings. Absent names
// are criteria not yet rated.
type Criteria map[string]float64

// Strategy derives a 0-20 note from a criterion set.
type Strategy interface {
	Note(c Criteria) float64
}

// WeightedAverage sums value*weight over criteria actually present and
// divides by the accumulated absolute weights. Absent criteria are skipped,
// not zeroed. An empty rating yields 0.
type WeightedAverage struct {
	Weights Weights
}

// Note implements Strategy.
func (s WeightedAverage) Note(c Criteria) float64 {
	var total, totalWeight float64
	for name, weight := range s.Weights {
		value, ok := c[name]
		if !ok {
			continue
		}
		if weight < 0 {
			// Penalty flag: contributes value*weight directly, so a
			// flagged 1 pulls the note down and a 0 contributes nothing.
			total += value * weight
		} else {
			total += value / 5 * 20 * weight
		}
		totalWeight += math.Abs(weight)
	}
	if totalWeight == 0 {
		return 0
	}
	return round2(clamp(total / totalWeight))
}

// QuizBlend applies the fixed quiz-merge table. Criteria the table names
// that are absent or below 1 are floored at 1, except the quiz criterion
// which is taken as-is (0 when absent).
type QuizBlend struct{}

// Note implements Strategy.
func (QuizBlend) Note(c Criteria) float64 {
	var total, totalWeight float64
	for name, weight := range QuizBlendWeights {
		var value float64
		if name == Quiz {
			value = c[Quiz]
		} else {
			value = math.Max(c[name], 1)
		}
		total += value / 5 * 20 * weight
		totalWeight += weight
	}
	return round2(clamp(total / totalWeight))
}

// TeamAverage is the arithmetic mean of per-member notes, fully recomputed
// from the current values rather than incrementally updated.
func TeamAverage(notes []float64) float64 {
	if len(notes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range notes {
		sum += n
	}
	return round2(sum / float64(len(notes)))
}

// QuizCriterion rescales a quiz result to the 0-5 criterion scale. With
// more than five questions the ratio is rescaled; with five or fewer each
// correct answer maps to one point, capped at 5.
func QuizCriterion(correct, total int) float64 {
	if total > 5 {
		return float64(correct) / float64(total) * 5
	}
	return math.Min(float64(correct), 5)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(20, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
