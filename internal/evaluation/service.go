// Package evaluation reconciles quiz results and grid submissions into
// persisted team evaluation records. The engines in internal/scoring stay
// pure; all lookups and writes go through the injected collaborators.
package evaluation

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/forkina/evaluator/internal/model"
	"github.com/forkina/evaluator/internal/scoring"
)

var (
	// ErrNoMembers means no valid team member could be found, so no record
	// can be constructed.
	ErrNoMembers = errors.New("no valid team members")
	// ErrValidation marks a rejected payload (missing identifiers or
	// out-of-range criteria).
	ErrValidation = errors.New("invalid evaluation")
)

// Store persists evaluation records and quiz results.
type Store interface {
	GetEvaluationByTeam(teamID int64) (*model.Evaluation, error)
	CreateEvaluation(ev *model.Evaluation) (int64, error)
	UpdateEvaluation(ev *model.Evaluation) error
	SaveQuizResult(teamID int64, res model.QuizResult) (int64, error)
}

// Directory resolves team membership. UsersByTeam is the fallback lookup
// tried once when the primary team fetch fails or yields no members.
type Directory interface {
	GetTeam(teamID int64) (*model.Team, error)
	UsersByTeam(teamID int64) ([]model.User, error)
}

// Service applies quiz results and grid submissions to evaluation records.
type Service struct {
	store    Store
	dir      Directory
	validate *validator.Validate
}

// NewService creates an evaluation service.
func NewService(store Store, dir Directory) *Service {
	return &Service{
		store:    store,
		dir:      dir,
		validate: validator.New(),
	}
}

// ApplyQuizResult merges a graded quiz into the team's evaluation record.
// The quiz-derived criterion is applied uniformly to every member (the quiz
// is team-wide), each note is recomputed with the quiz blend, and the team
// average is recomputed from scratch. When no record exists yet, one is
// created from team membership with floor values for the unrated criteria.
func (s *Service) ApplyQuizResult(teamID, evaluatorID int64, res model.QuizResult) (*model.Evaluation, error) {
	if teamID == 0 || evaluatorID == 0 {
		return nil, fmt.Errorf("%w: team and evaluator are required", ErrValidation)
	}

	quizValue := scoring.QuizCriterion(res.CorrectAnswers, res.TotalQuestions)
	slog.Info("applying quiz result",
		"team_id", teamID,
		"correct", res.CorrectAnswers,
		"total", res.TotalQuestions,
		"quiz_criterion", quizValue,
	)

	if _, err := s.store.SaveQuizResult(teamID, res); err != nil {
		return nil, fmt.Errorf("save quiz result: %w", err)
	}

	existing, err := s.store.GetEvaluationByTeam(teamID)
	if err != nil {
		return nil, fmt.Errorf("fetch evaluation for team %d: %w", teamID, err)
	}

	info := &model.QuizInfo{
		RepoURL:        res.RepoURL,
		Score:          res.CorrectAnswers,
		TotalQuestions: res.TotalQuestions,
		CompletedAt:    time.Now(),
	}

	if existing == nil {
		return s.createFromQuiz(teamID, evaluatorID, quizValue, info)
	}
	return s.mergeIntoExisting(existing, quizValue, info)
}

func (s *Service) createFromQuiz(teamID, evaluatorID int64, quizValue float64, info *model.QuizInfo) (*model.Evaluation, error) {
	members, err := s.teamMembers(teamID)
	if err != nil {
		return nil, err
	}

	blend := scoring.QuizBlend{}
	floor := 1.0
	sets := make([]model.CriterionSet, 0, len(members))
	for _, m := range members {
		cs := model.CriterionSet{
			MemberID:        m.ID,
			CodePerformance: ptr(floor),
			CommitFrequency: ptr(floor),
			ReportQuality:   ptr(floor),
			Quiz:            ptr(quizValue),
		}
		cs.Note = blend.Note(scoring.FromSet(cs))
		sets = append(sets, cs)
	}

	ev := &model.Evaluation{
		TeamID:      teamID,
		EvaluatorID: evaluatorID,
		Evaluations: sets,
		QuizInfo:    info,
		TeamAverage: scoring.TeamAverage(notes(sets)),
		EvaluatedAt: time.Now(),
	}
	if err := s.validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	id, err := s.store.CreateEvaluation(ev)
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	ev.ID = id
	return ev, nil
}

func (s *Service) mergeIntoExisting(ev *model.Evaluation, quizValue float64, info *model.QuizInfo) (*model.Evaluation, error) {
	blend := scoring.QuizBlend{}
	for i := range ev.Evaluations {
		ev.Evaluations[i].Quiz = ptr(quizValue)
		ev.Evaluations[i].Note = blend.Note(scoring.FromSet(ev.Evaluations[i]))
	}
	ev.QuizInfo = info
	ev.TeamAverage = scoring.TeamAverage(notes(ev.Evaluations))

	if err := s.store.UpdateEvaluation(ev); err != nil {
		return nil, fmt.Errorf("update evaluation %d: %w", ev.ID, err)
	}
	return ev, nil
}

// SaveGrid persists a tutor grid submission. Notes and the team average are
// recomputed server-side with the grid weights; a client-provided note is
// never trusted.
func (s *Service) SaveGrid(ev *model.Evaluation) (*model.Evaluation, error) {
	if ev.TeamID == 0 || ev.EvaluatorID == 0 {
		return nil, fmt.Errorf("%w: team and evaluator are required", ErrValidation)
	}

	grid := scoring.WeightedAverage{Weights: scoring.GridWeights}
	for i := range ev.Evaluations {
		ev.Evaluations[i].Note = grid.Note(scoring.FromSet(ev.Evaluations[i]))
	}
	ev.TeamAverage = scoring.TeamAverage(notes(ev.Evaluations))
	if ev.EvaluatedAt.IsZero() {
		ev.EvaluatedAt = time.Now()
	}

	if err := s.validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.store.GetEvaluationByTeam(ev.TeamID)
	if err != nil {
		return nil, fmt.Errorf("fetch evaluation for team %d: %w", ev.TeamID, err)
	}
	if existing != nil {
		ev.ID = existing.ID
		if ev.QuizInfo == nil {
			ev.QuizInfo = existing.QuizInfo
		}
		if err := s.store.UpdateEvaluation(ev); err != nil {
			return nil, fmt.Errorf("update evaluation %d: %w", ev.ID, err)
		}
		return ev, nil
	}

	id, err := s.store.CreateEvaluation(ev)
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	ev.ID = id
	return ev, nil
}

// teamMembers resolves membership via the primary team lookup, retrying
// once through the users-by-team fallback before giving up.
func (s *Service) teamMembers(teamID int64) ([]model.User, error) {
	team, err := s.dir.GetTeam(teamID)
	if err == nil && team != nil {
		members := make([]model.User, 0, len(team.Members))
		for _, m := range team.Members {
			if m.User.ID != 0 {
				members = append(members, m.User)
			}
		}
		if len(members) > 0 {
			return members, nil
		}
	}
	if err != nil {
		slog.Warn("primary team lookup failed, trying users-by-team fallback", "team_id", teamID, "error", err)
	}

	users, ferr := s.dir.UsersByTeam(teamID)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("team membership lookup (team %d): %w", teamID, errors.Join(err, ferr))
		}
		return nil, fmt.Errorf("users-by-team lookup (team %d): %w", teamID, ferr)
	}
	valid := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID != 0 {
			valid = append(valid, u)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrNoMembers)
	}
	return valid, nil
}

func notes(sets []model.CriterionSet) []float64 {
	out := make([]float64, len(sets))
	for i, cs := range sets {
		out[i] = cs.Note
	}
	return out
}

func ptr(v float64) *float64 { return &v }
