package scoring

import "github.com/forkina/evaluator/internal/model"

// FromSet flattens a member's criterion set into the name-to-value view the
// strategies consume. Nil fields are omitted so strategies can tell unrated
// criteria apart from zero ratings.
func FromSet(c model.CriterionSet) Criteria {
	out := make(Criteria)
	put := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	put(Clarity, c.Clarity)
	put(CommitFrequency, c.CommitFrequency)
	put(DeadlineRespect, c.DeadlineRespect)
	put(Efficiency, c.Efficiency)
	put(CodePerformance, c.CodePerformance)
	put(PlagiarismDetection, c.PlagiarismDetection)
	put(Collaboration, c.Collaboration)
	put(TestsValidation, c.TestsValidation)
	put(ReportQuality, c.ReportQuality)
	put(Quiz, c.Quiz)
	return out
}
