package model

import "time"

// EvaluationExport is the top-level JSON structure for evaluation export.
type EvaluationExport struct {
	Course      string           `json:"course"`
	GeneratedAt time.Time        `json:"generated_at"`
	Teams       []TeamEvaluation `json:"teams"`
}

// TeamEvaluation holds one team's evaluation record for export.
type TeamEvaluation struct {
	TeamID      int64          `json:"team_id"`
	TeamName    string         `json:"team_name"`
	Evaluator   string         `json:"evaluator"`
	Members     []MemberResult `json:"members"`
	QuizInfo    *QuizInfo      `json:"quiz_info,omitempty"`
	TeamAverage float64        `json:"team_average"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
}

// MemberResult holds per-member criteria and note for export.
type MemberResult struct {
	DisplayName string       `json:"display_name"`
	Criteria    CriterionSet `json:"criteria"`
	Note        float64      `json:"note"`
}
