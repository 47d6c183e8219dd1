package store

import (
	"fmt"
	"time"

	"github.com/forkina/evaluator/internal/model"
)

// ExportAllEvaluations builds the export-ready view of every evaluation
// record, resolving team and user names.
func (s *Store) ExportAllEvaluations() (*model.EvaluationExport, error) {
	evs, err := s.ListEvaluations()
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	export := &model.EvaluationExport{GeneratedAt: time.Now()}
	for _, ev := range evs {
		team, err := s.GetTeam(ev.TeamID)
		if err != nil {
			return nil, fmt.Errorf("get team %d: %w", ev.TeamID, err)
		}
		teamName := ""
		if team != nil {
			teamName = team.Name
		}

		evaluator, err := s.GetUserByID(ev.EvaluatorID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", ev.EvaluatorID, err)
		}
		evaluatorName := ""
		if evaluator != nil {
			evaluatorName = displayName(*evaluator)
		}

		var members []model.MemberResult
		for _, cs := range ev.Evaluations {
			name := fmt.Sprintf("user %d", cs.MemberID)
			if u, err := s.GetUserByID(cs.MemberID); err == nil && u != nil {
				name = displayName(*u)
			}
			members = append(members, model.MemberResult{
				DisplayName: name,
				Criteria:    cs,
				Note:        cs.Note,
			})
		}

		export.Teams = append(export.Teams, model.TeamEvaluation{
			TeamID:      ev.TeamID,
			TeamName:    teamName,
			Evaluator:   evaluatorName,
			Members:     members,
			QuizInfo:    ev.QuizInfo,
			TeamAverage: ev.TeamAverage,
			EvaluatedAt: ev.EvaluatedAt,
		})
	}

	return export, nil
}

func displayName(u model.User) string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
