package scoring

import (
	"testing"

	"github.com/forkina/evaluator/internal/model"
)

func TestWeightedAverage(t *testing.T) {
	grid := WeightedAverage{Weights: GridWeights}

	full := Criteria{
		Clarity:         5,
		CommitFrequency: 5,
		DeadlineRespect: 5,
		Efficiency:      5,
		CodePerformance: 5,
		Collaboration:   5,
		TestsValidation: 5,
		ReportQuality:   5,
	}

	tests := []struct {
		name string
		c    Criteria
		want float64
	}{
		{"empty rating", Criteria{}, 0},
		{"single criterion full marks", Criteria{Clarity: 5}, 20},
		{"single criterion half marks", Criteria{Clarity: 2.5}, 10},
		{"all maxed, no penalty rated", full, 20},
		{"mixed ratings", Criteria{Clarity: 4, CodePerformance: 2}, 10.67},
		{"unknown names ignored", Criteria{"velocity": 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.Note(tt.c); got != tt.want {
				t.Errorf("Note = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeightedAveragePlagiarismPenalty(t *testing.T) {
	grid := WeightedAverage{Weights: GridWeights}

	base := func(flag float64) Criteria {
		return Criteria{
			Clarity:             5,
			CommitFrequency:     5,
			DeadlineRespect:     5,
			Efficiency:          5,
			CodePerformance:     5,
			Collaboration:       5,
			TestsValidation:     5,
			ReportQuality:       5,
			PlagiarismDetection: flag,
		}
	}

	// Rating the penalty at 0 still enlarges the divisor, so a clean record
	// with the flag rated scores lower than one where it was left unrated.
	clean := grid.Note(base(0))
	if clean != 15.71 {
		t.Errorf("clean flagged note = %v, want 15.71", clean)
	}
	flagged := grid.Note(base(1))
	if flagged != 15.5 {
		t.Errorf("flagged note = %v, want 15.5", flagged)
	}
	if flagged >= clean {
		t.Errorf("penalty should lower the note: %v >= %v", flagged, clean)
	}
}

func TestWeightedAverageClamp(t *testing.T) {
	s := WeightedAverage{Weights: Weights{"bonus": 10, "malus": -10}}

	if got := s.Note(Criteria{"malus": 25}); got != 0 {
		t.Errorf("expected note clamped to 0, got %v", got)
	}
}

func TestQuizBlend(t *testing.T) {
	blend := QuizBlend{}

	tests := []struct {
		name string
		c    Criteria
		want float64
	}{
		// Quiz-only record: the three grade criteria floor at 1.
		{"quiz only", Criteria{Quiz: 3}, 6},
		{"quiz zero", Criteria{}, 3},
		{"all rated", Criteria{CodePerformance: 5, CommitFrequency: 4, ReportQuality: 3, Quiz: 5}, 17.33},
		{"low ratings floored", Criteria{CodePerformance: 0.5, CommitFrequency: 0, Quiz: 3}, 6},
		{"perfect", Criteria{CodePerformance: 5, CommitFrequency: 5, ReportQuality: 5, Quiz: 5}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blend.Note(tt.c); got != tt.want {
				t.Errorf("Note = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTeamAverage(t *testing.T) {
	tests := []struct {
		name  string
		notes []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []float64{12.5}, 12.5},
		{"two members", []float64{10, 15}, 12.5},
		{"rounded", []float64{6, 17.33}, 11.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TeamAverage(tt.notes); got != tt.want {
				t.Errorf("TeamAverage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuizCriterion(t *testing.T) {
	tests := []struct {
		name           string
		correct, total int
		want           float64
	}{
		{"five questions direct", 3, 5, 3},
		{"perfect short quiz", 5, 5, 5},
		{"zero correct", 0, 5, 0},
		{"ten questions rescaled", 7, 10, 3.5},
		{"twenty questions rescaled", 4, 20, 1},
		{"short quiz capped", 3, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuizCriterion(tt.correct, tt.total); got != tt.want {
				t.Errorf("QuizCriterion(%d, %d) = %v, want %v", tt.correct, tt.total, got, tt.want)
			}
		})
	}
}

func TestFromSet(t *testing.T) {
	v := 4.0
	q := 2.5
	c := FromSet(model.CriterionSet{
		MemberID: 1,
		Clarity:  &v,
		Quiz:     &q,
	})
	if len(c) != 2 {
		t.Fatalf("expected 2 rated criteria, got %d", len(c))
	}
	if c[Clarity] != 4 || c[Quiz] != 2.5 {
		t.Errorf("unexpected values: %v", c)
	}
	if _, ok := c[CommitFrequency]; ok {
		t.Error("nil field should be absent, not zero")
	}
}
