package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forkina/evaluator/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		team_id INTEGER,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS teams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS team_members (
		team_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (team_id, user_id),
		FOREIGN KEY (team_id) REFERENCES teams(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		team_id INTEGER NOT NULL UNIQUE,
		evaluator_id INTEGER NOT NULL,
		quiz_repo_url TEXT,
		quiz_score INTEGER,
		quiz_total INTEGER,
		quiz_completed_at DATETIME,
		team_average REAL NOT NULL DEFAULT 0,
		evaluated_at DATETIME NOT NULL,
		FOREIGN KEY (team_id) REFERENCES teams(id),
		FOREIGN KEY (evaluator_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS member_evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		evaluation_id INTEGER NOT NULL,
		member_id INTEGER NOT NULL,
		clarity REAL,
		commit_frequency REAL,
		deadline_respect REAL,
		efficiency REAL,
		code_performance REAL,
		plagiarism_detection REAL,
		collaboration REAL,
		tests_validation REAL,
		report_quality REAL,
		quiz REAL,
		note REAL NOT NULL DEFAULT 0,
		UNIQUE (evaluation_id, member_id),
		FOREIGN KEY (evaluation_id) REFERENCES evaluations(id)
	);

	CREATE TABLE IF NOT EXISTS quiz_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		team_id INTEGER NOT NULL,
		repo_url TEXT NOT NULL DEFAULT '',
		quiz_content TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		answers TEXT NOT NULL DEFAULT '[]',
		completed_at DATETIME NOT NULL,
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateEvaluation inserts an evaluation record with its member rows.
func (s *Store) CreateEvaluation(ev *model.Evaluation) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	args := append([]any{ev.TeamID, ev.EvaluatorID}, quizInfoArgs(ev.QuizInfo, ev.TeamAverage, ev.EvaluatedAt)...)
	res, err := tx.Exec(
		`INSERT INTO evaluations (team_id, evaluator_id, quiz_repo_url, quiz_score, quiz_total, quiz_completed_at, team_average, evaluated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, cs := range ev.Evaluations {
		if err := insertMemberEvaluation(tx, id, cs); err != nil {
			return 0, err
		}
	}

	return id, tx.Commit()
}

// UpdateEvaluation rewrites an evaluation record and all its member rows.
func (s *Store) UpdateEvaluation(ev *model.Evaluation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	args := append(quizInfoArgs(ev.QuizInfo, ev.TeamAverage, ev.EvaluatedAt), ev.ID)
	_, err = tx.Exec(
		`UPDATE evaluations
		 SET quiz_repo_url = ?, quiz_score = ?, quiz_total = ?, quiz_completed_at = ?, team_average = ?, evaluated_at = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM member_evaluations WHERE evaluation_id = ?`, ev.ID); err != nil {
		return err
	}
	for _, cs := range ev.Evaluations {
		if err := insertMemberEvaluation(tx, ev.ID, cs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetEvaluationByTeam returns the team's evaluation record, or nil when
// none exists.
func (s *Store) GetEvaluationByTeam(teamID int64) (*model.Evaluation, error) {
	return s.getEvaluation(`WHERE team_id = ?`, teamID)
}

// GetEvaluationByID returns an evaluation record by ID, or nil.
func (s *Store) GetEvaluationByID(id int64) (*model.Evaluation, error) {
	return s.getEvaluation(`WHERE id = ?`, id)
}

func (s *Store) getEvaluation(where string, arg any) (*model.Evaluation, error) {
	var (
		ev          model.Evaluation
		repoURL     sql.NullString
		score       sql.NullInt64
		total       sql.NullInt64
		completedAt sql.NullTime
	)
	err := s.db.QueryRow(
		`SELECT id, team_id, evaluator_id, quiz_repo_url, quiz_score, quiz_total, quiz_completed_at, team_average, evaluated_at
		 FROM evaluations `+where, arg,
	).Scan(&ev.ID, &ev.TeamID, &ev.EvaluatorID, &repoURL, &score, &total, &completedAt, &ev.TeamAverage, &ev.EvaluatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		ev.QuizInfo = &model.QuizInfo{
			RepoURL:        repoURL.String,
			Score:          int(score.Int64),
			TotalQuestions: int(total.Int64),
			CompletedAt:    completedAt.Time,
		}
	}

	ev.Evaluations, err = s.memberEvaluations(ev.ID)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *Store) memberEvaluations(evaluationID int64) ([]model.CriterionSet, error) {
	rows, err := s.db.Query(
		`SELECT member_id, clarity, commit_frequency, deadline_respect, efficiency, code_performance,
		        plagiarism_detection, collaboration, tests_validation, report_quality, quiz, note
		 FROM member_evaluations WHERE evaluation_id = ? ORDER BY id`, evaluationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []model.CriterionSet
	for rows.Next() {
		var (
			cs model.CriterionSet
			v  [10]sql.NullFloat64
		)
		if err := rows.Scan(&cs.MemberID, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7], &v[8], &v[9], &cs.Note); err != nil {
			return nil, err
		}
		cs.Clarity = nullable(v[0])
		cs.CommitFrequency = nullable(v[1])
		cs.DeadlineRespect = nullable(v[2])
		cs.Efficiency = nullable(v[3])
		cs.CodePerformance = nullable(v[4])
		cs.PlagiarismDetection = nullable(v[5])
		cs.Collaboration = nullable(v[6])
		cs.TestsValidation = nullable(v[7])
		cs.ReportQuality = nullable(v[8])
		cs.Quiz = nullable(v[9])
		sets = append(sets, cs)
	}
	return sets, rows.Err()
}

func insertMemberEvaluation(tx *sql.Tx, evaluationID int64, cs model.CriterionSet) error {
	_, err := tx.Exec(
		`INSERT INTO member_evaluations
		 (evaluation_id, member_id, clarity, commit_frequency, deadline_respect, efficiency, code_performance,
		  plagiarism_detection, collaboration, tests_validation, report_quality, quiz, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		evaluationID, cs.MemberID,
		deref(cs.Clarity), deref(cs.CommitFrequency), deref(cs.DeadlineRespect), deref(cs.Efficiency),
		deref(cs.CodePerformance), deref(cs.PlagiarismDetection), deref(cs.Collaboration),
		deref(cs.TestsValidation), deref(cs.ReportQuality), deref(cs.Quiz), cs.Note,
	)
	return err
}

// SaveQuizResult persists a graded quiz run for a team.
func (s *Store) SaveQuizResult(teamID int64, r model.QuizResult) (int64, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO quiz_results (team_id, repo_url, quiz_content, score, total_questions, correct_answers, answers, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		teamID, r.RepoURL, r.QuizContent, r.Score, r.TotalQuestions, r.CorrectAnswers, string(answers), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListQuizResults returns all quiz results for a team, newest first.
func (s *Store) ListQuizResults(teamID int64) ([]model.QuizResult, error) {
	rows, err := s.db.Query(
		`SELECT repo_url, quiz_content, score, total_questions, correct_answers, answers
		 FROM quiz_results WHERE team_id = ? ORDER BY id DESC`, teamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.QuizResult
	for rows.Next() {
		var (
			r       model.QuizResult
			answers string
		)
		if err := rows.Scan(&r.RepoURL, &r.QuizContent, &r.Score, &r.TotalQuestions, &r.CorrectAnswers, &answers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListEvaluations returns all evaluation records.
func (s *Store) ListEvaluations() ([]model.Evaluation, error) {
	rows, err := s.db.Query(`SELECT id FROM evaluations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var evs []model.Evaluation
	for _, id := range ids {
		ev, err := s.GetEvaluationByID(id)
		if err != nil {
			return nil, err
		}
		evs = append(evs, *ev)
	}
	return evs, nil
}

func quizInfoArgs(info *model.QuizInfo, teamAverage float64, evaluatedAt time.Time) []any {
	if info == nil {
		return []any{nil, nil, nil, nil, teamAverage, evaluatedAt}
	}
	return []any{info.RepoURL, info.Score, info.TotalQuestions, info.CompletedAt, teamAverage, evaluatedAt}
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
