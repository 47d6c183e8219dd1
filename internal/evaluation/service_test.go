package evaluation

import (
	"errors"
	"testing"

	"github.com/forkina/evaluator/internal/model"
)

type fakeStore struct {
	evaluations map[int64]*model.Evaluation
	quizSaves   int
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{evaluations: make(map[int64]*model.Evaluation), nextID: 1}
}

func (f *fakeStore) GetEvaluationByTeam(teamID int64) (*model.Evaluation, error) {
	for _, ev := range f.evaluations {
		if ev.TeamID == teamID {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateEvaluation(ev *model.Evaluation) (int64, error) {
	id := f.nextID
	f.nextID++
	cp := *ev
	cp.ID = id
	f.evaluations[id] = &cp
	return id, nil
}

func (f *fakeStore) UpdateEvaluation(ev *model.Evaluation) error {
	if _, ok := f.evaluations[ev.ID]; !ok {
		return errors.New("not found")
	}
	cp := *ev
	f.evaluations[ev.ID] = &cp
	return nil
}

func (f *fakeStore) SaveQuizResult(int64, model.QuizResult) (int64, error) {
	f.quizSaves++
	return int64(f.quizSaves), nil
}

type fakeDirectory struct {
	team        *model.Team
	teamErr     error
	fallback    []model.User
	fallbackErr error

	teamCalls     int
	fallbackCalls int
}

func (f *fakeDirectory) GetTeam(int64) (*model.Team, error) {
	f.teamCalls++
	return f.team, f.teamErr
}

func (f *fakeDirectory) UsersByTeam(int64) ([]model.User, error) {
	f.fallbackCalls++
	return f.fallback, f.fallbackErr
}

func teamOf(ids ...int64) *model.Team {
	t := &model.Team{ID: 7, Name: "alpha"}
	for _, id := range ids {
		t.Members = append(t.Members, model.TeamMember{User: model.User{ID: id}})
	}
	return t
}

func quizResult(correct, total int) model.QuizResult {
	return model.QuizResult{
		RepoURL:        "https://example.com/repo.git",
		Score:          correct * 100 / total,
		TotalQuestions: total,
		CorrectAnswers: correct,
	}
}

func TestApplyQuizResultCreatesRecord(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{team: teamOf(1, 2, 3)}
	svc := NewService(store, dir)

	ev, err := svc.ApplyQuizResult(7, 42, quizResult(3, 5))
	if err != nil {
		t.Fatalf("ApplyQuizResult: %v", err)
	}

	if store.quizSaves != 1 {
		t.Errorf("expected quiz result persisted once, got %d", store.quizSaves)
	}
	if len(ev.Evaluations) != 3 {
		t.Fatalf("expected 3 member rows, got %d", len(ev.Evaluations))
	}
	for _, cs := range ev.Evaluations {
		if cs.Quiz == nil || *cs.Quiz != 3 {
			t.Errorf("member %d: quiz criterion = %v, want 3", cs.MemberID, cs.Quiz)
		}
		// Floored criteria 1/1/1 plus quiz 3 under the fixed blend.
		if cs.Note != 6 {
			t.Errorf("member %d: note = %v, want 6", cs.MemberID, cs.Note)
		}
	}
	if ev.TeamAverage != 6 {
		t.Errorf("team average = %v, want 6", ev.TeamAverage)
	}
	if ev.QuizInfo == nil || ev.QuizInfo.TotalQuestions != 5 || ev.QuizInfo.Score != 3 {
		t.Errorf("unexpected quiz info: %+v", ev.QuizInfo)
	}
	if dir.fallbackCalls != 0 {
		t.Errorf("fallback should not run when the primary lookup works, ran %d times", dir.fallbackCalls)
	}
}

func TestApplyQuizResultMergesExisting(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{team: teamOf(1, 2)}
	svc := NewService(store, dir)

	five := 5.0
	existing := &model.Evaluation{
		TeamID:      7,
		EvaluatorID: 42,
		Evaluations: []model.CriterionSet{
			{MemberID: 1, CodePerformance: &five, CommitFrequency: &five, ReportQuality: &five, Note: 15},
			{MemberID: 2, CodePerformance: &five, CommitFrequency: &five, ReportQuality: &five, Note: 15},
		},
	}
	if _, err := store.CreateEvaluation(existing); err != nil {
		t.Fatalf("CreateEvaluation: %v", err)
	}

	ev, err := svc.ApplyQuizResult(7, 42, quizResult(5, 5))
	if err != nil {
		t.Fatalf("ApplyQuizResult: %v", err)
	}

	for _, cs := range ev.Evaluations {
		if cs.Quiz == nil || *cs.Quiz != 5 {
			t.Errorf("member %d: quiz = %v, want uniform 5", cs.MemberID, cs.Quiz)
		}
		// Kept ratings stay, only the quiz column and the note change.
		if cs.CodePerformance == nil || *cs.CodePerformance != 5 {
			t.Errorf("member %d: existing rating lost", cs.MemberID)
		}
		if cs.Note != 20 {
			t.Errorf("member %d: note = %v, want 20", cs.MemberID, cs.Note)
		}
	}
	if ev.TeamAverage != 20 {
		t.Errorf("team average = %v, want 20", ev.TeamAverage)
	}
	if dir.teamCalls != 0 {
		t.Errorf("membership lookup should be skipped on merge, ran %d times", dir.teamCalls)
	}
}

func TestApplyQuizResultMembershipFallback(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{
		teamErr:  errors.New("team lookup down"),
		fallback: []model.User{{ID: 1}, {ID: 0}, {ID: 2}},
	}
	svc := NewService(store, dir)

	ev, err := svc.ApplyQuizResult(7, 42, quizResult(2, 5))
	if err != nil {
		t.Fatalf("ApplyQuizResult: %v", err)
	}
	if dir.fallbackCalls != 1 {
		t.Errorf("expected exactly one fallback call, got %d", dir.fallbackCalls)
	}
	// The zero-ID entry is dropped.
	if len(ev.Evaluations) != 2 {
		t.Fatalf("expected 2 member rows, got %d", len(ev.Evaluations))
	}
}

func TestApplyQuizResultNoMembers(t *testing.T) {
	tests := []struct {
		name string
		dir  *fakeDirectory
	}{
		{"empty team and empty fallback", &fakeDirectory{team: teamOf(), fallback: nil}},
		{"only invalid members", &fakeDirectory{team: teamOf(0), fallback: []model.User{{ID: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFakeStore(), tt.dir)
			_, err := svc.ApplyQuizResult(7, 42, quizResult(1, 5))
			if !errors.Is(err, ErrNoMembers) {
				t.Fatalf("expected ErrNoMembers, got %v", err)
			}
		})
	}
}

func TestApplyQuizResultBothLookupsFail(t *testing.T) {
	dir := &fakeDirectory{
		teamErr:     errors.New("primary down"),
		fallbackErr: errors.New("fallback down"),
	}
	svc := NewService(newFakeStore(), dir)
	_, err := svc.ApplyQuizResult(7, 42, quizResult(1, 5))
	if err == nil {
		t.Fatal("expected error when both lookups fail")
	}
	if errors.Is(err, ErrNoMembers) {
		t.Errorf("lookup failure should not read as an empty team: %v", err)
	}
}

func TestApplyQuizResultValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeDirectory{team: teamOf(1)})

	if _, err := svc.ApplyQuizResult(0, 42, quizResult(1, 5)); !errors.Is(err, ErrValidation) {
		t.Errorf("missing team: expected ErrValidation, got %v", err)
	}
	if _, err := svc.ApplyQuizResult(7, 0, quizResult(1, 5)); !errors.Is(err, ErrValidation) {
		t.Errorf("missing evaluator: expected ErrValidation, got %v", err)
	}
}

func TestSaveGridRecomputesNotes(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeDirectory{})

	five := 5.0
	ev := &model.Evaluation{
		TeamID:      7,
		EvaluatorID: 42,
		Evaluations: []model.CriterionSet{
			{
				MemberID:        1,
				Clarity:         &five,
				CommitFrequency: &five,
				DeadlineRespect: &five,
				Efficiency:      &five,
				CodePerformance: &five,
				Collaboration:   &five,
				TestsValidation: &five,
				ReportQuality:   &five,
				Note:            3, // client-provided, must be ignored
			},
		},
	}

	saved, err := svc.SaveGrid(ev)
	if err != nil {
		t.Fatalf("SaveGrid: %v", err)
	}
	if saved.Evaluations[0].Note != 20 {
		t.Errorf("note = %v, want server-side 20", saved.Evaluations[0].Note)
	}
	if saved.TeamAverage != 20 {
		t.Errorf("team average = %v, want 20", saved.TeamAverage)
	}
	if saved.ID == 0 {
		t.Error("expected an assigned ID on create")
	}
}

func TestSaveGridUpsertsByTeam(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeDirectory{})

	three := 3.0
	first := &model.Evaluation{
		TeamID:      7,
		EvaluatorID: 42,
		QuizInfo:    &model.QuizInfo{RepoURL: "r", Score: 4, TotalQuestions: 5},
		Evaluations: []model.CriterionSet{{MemberID: 1, Clarity: &three}},
	}
	saved, err := svc.SaveGrid(first)
	if err != nil {
		t.Fatalf("SaveGrid create: %v", err)
	}

	second := &model.Evaluation{
		TeamID:      7,
		EvaluatorID: 42,
		Evaluations: []model.CriterionSet{{MemberID: 1, Clarity: &three}},
	}
	resaved, err := svc.SaveGrid(second)
	if err != nil {
		t.Fatalf("SaveGrid update: %v", err)
	}
	if resaved.ID != saved.ID {
		t.Errorf("expected update of record %d, got new ID %d", saved.ID, resaved.ID)
	}
	if len(store.evaluations) != 1 {
		t.Errorf("expected a single record per team, got %d", len(store.evaluations))
	}
	// A resubmission without quiz info keeps the stored quiz info.
	if resaved.QuizInfo == nil || resaved.QuizInfo.Score != 4 {
		t.Errorf("quiz info lost on update: %+v", resaved.QuizInfo)
	}
}

func TestSaveGridValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeDirectory{})

	bad := 7.5 // above the 0-5 criterion scale
	tests := []struct {
		name string
		ev   *model.Evaluation
	}{
		{"missing team", &model.Evaluation{EvaluatorID: 42, Evaluations: []model.CriterionSet{{MemberID: 1}}}},
		{"missing evaluator", &model.Evaluation{TeamID: 7, Evaluations: []model.CriterionSet{{MemberID: 1}}}},
		{"no member rows", &model.Evaluation{TeamID: 7, EvaluatorID: 42}},
		{"criterion out of range", &model.Evaluation{
			TeamID: 7, EvaluatorID: 42,
			Evaluations: []model.CriterionSet{{MemberID: 1, Clarity: &bad}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SaveGrid(tt.ev); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
