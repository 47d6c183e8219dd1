package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTutor is a tutor user role.
	UserRoleTutor UserRole = "tutor"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	TeamID       *int64    `json:"teamId,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Team represents a project team.
type Team struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Members []TeamMember `json:"members"`
}

// TeamMember links a user to a team.
type TeamMember struct {
	User User `json:"user"`
}

// CriterionSet holds the rated criteria for one team member.
// Pointer fields distinguish "not yet rated" from a zero rating; the
// scoring strategies skip or floor absent criteria depending on the variant.
type CriterionSet struct {
	MemberID            int64    `json:"member" validate:"required"`
	Clarity             *float64 `json:"clarity,omitempty" validate:"omitempty,gte=0,lte=5"`
	CommitFrequency     *float64 `json:"commitFrequency,omitempty" validate:"omitempty,gte=0,lte=5"`
	DeadlineRespect     *float64 `json:"deadlineRespect,omitempty" validate:"omitempty,gte=0,lte=5"`
	Efficiency          *float64 `json:"efficiency,omitempty" validate:"omitempty,gte=0,lte=5"`
	CodePerformance     *float64 `json:"codePerformance,omitempty" validate:"omitempty,gte=0,lte=5"`
	PlagiarismDetection *float64 `json:"plagiarismDetection,omitempty" validate:"omitempty,gte=0,lte=1"`
	Collaboration       *float64 `json:"collaboration,omitempty" validate:"omitempty,gte=0,lte=5"`
	TestsValidation     *float64 `json:"testsValidation,omitempty" validate:"omitempty,gte=0,lte=5"`
	ReportQuality       *float64 `json:"reportQuality,omitempty" validate:"omitempty,gte=0,lte=5"`
	Quiz                *float64 `json:"quiz,omitempty" validate:"omitempty,gte=0,lte=5"`
	Note                float64  `json:"note" validate:"gte=0,lte=20"`
}

// QuizInfo records the quiz run attached to an evaluation.
type QuizInfo struct {
	RepoURL        string    `json:"repoUrl"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Evaluation is a team-scoped evaluation record.
type Evaluation struct {
	ID          int64          `json:"id"`
	TeamID      int64          `json:"team" validate:"required"`
	EvaluatorID int64          `json:"evaluator" validate:"required"`
	Evaluations []CriterionSet `json:"evaluations" validate:"required,min=1,dive"`
	QuizInfo    *QuizInfo      `json:"quizInfo,omitempty"`
	TeamAverage float64        `json:"teamAverage" validate:"gte=0,lte=20"`
	EvaluatedAt time.Time      `json:"evaluatedAt"`
}

// QuizAnswer is one answered question in a submitted quiz result.
type QuizAnswer struct {
	QuestionIndex  int    `json:"questionIndex"`
	Question       string `json:"question"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// QuizResult is the structured payload produced by grading a quiz session.
type QuizResult struct {
	RepoURL        string       `json:"repoUrl"`
	QuizContent    string       `json:"quizContent"`
	Answers        []QuizAnswer `json:"answers"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"totalQuestions"`
	CorrectAnswers int          `json:"correctAnswers"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Lang          string // default language for API messages (en, fr)
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	MaxSourceLen  int    // max characters of repo source sent to the LLM
	PromptVariant string // quiz generation prompt variant (fr, en)
	QuizCacheTTL  time.Duration
}
