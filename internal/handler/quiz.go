package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forkina/evaluator/internal/evaluation"
	"github.com/forkina/evaluator/internal/i18n"
	"github.com/forkina/evaluator/internal/model"
	"github.com/forkina/evaluator/internal/quiz"
	"github.com/forkina/evaluator/internal/repo"
)

type generateRequest struct {
	RepoURL string `json:"repoUrl" validate:"required,url"`
}

// handleQuizFromRepo clones the repository, snapshots its source and asks
// the LLM for quiz text. Results are cached per repository URL so repeated
// runs against the same project skip the clone and the model call.
func (h *Handler) handleQuizFromRepo(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "repoUrl must be a valid URL")
		return
	}

	ctx := r.Context()
	if cached, ok, err := h.cache.Get(ctx, req.RepoURL); err != nil {
		slog.Warn("quiz cache read failed", "repo", req.RepoURL, "error", err)
	} else if ok {
		slog.Info("quiz cache hit", "repo", req.RepoURL)
		respondData(w, http.StatusOK, map[string]any{"quiz": cached, "cached": true})
		return
	}

	source, err := repo.Snapshot(ctx, req.RepoURL, h.config.MaxSourceLen)
	if err != nil {
		slog.Error("repo snapshot failed", "repo", req.RepoURL, "error", err)
		respondError(w, http.StatusBadGateway, i18n.T(ctx, "QuizGenerationFailed"))
		return
	}

	raw, err := h.llm.GenerateQuiz(ctx, source)
	if err != nil {
		slog.Error("quiz generation failed", "repo", req.RepoURL, "error", err)
		respondError(w, http.StatusBadGateway, i18n.T(ctx, "QuizGenerationFailed"))
		return
	}

	if err := h.cache.Set(ctx, req.RepoURL, raw); err != nil {
		slog.Warn("quiz cache write failed", "repo", req.RepoURL, "error", err)
	}
	respondData(w, http.StatusOK, map[string]any{"quiz": raw, "cached": false})
}

type createSessionRequest struct {
	RepoURL  string `json:"repoUrl"`
	QuizText string `json:"quizText"`
}

// sessionView is the client-facing session shape.
type sessionView struct {
	SessionID string          `json:"sessionId"`
	RepoURL   string          `json:"repoUrl"`
	Questions []quiz.Question `json:"questions"`
	Answers   map[int]string  `json:"answers"`
	Graded    bool            `json:"graded"`
	Score     int             `json:"score"`
}

func viewOf(s *quiz.Session) sessionView {
	st := s.State()
	return sessionView{
		SessionID: s.ID,
		RepoURL:   s.RepoURL,
		Questions: st.Questions,
		Answers:   st.Answers,
		Graded:    st.Graded,
		Score:     st.Score,
	}
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.QuizText == "" {
		respondError(w, http.StatusBadRequest, "quizText is required")
		return
	}

	sess := h.sessions.Create(req.RepoURL, req.QuizText)
	if sess.QuestionCount() == 0 {
		h.sessions.Delete(sess.ID)
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"error":   i18n.T(r.Context(), "UnrecognizedQuizFormat"),
			"rawText": req.QuizText,
		})
		return
	}
	slog.Info("quiz session created", "session_id", sess.ID, "questions", sess.QuestionCount())
	respondData(w, http.StatusCreated, viewOf(sess))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*quiz.Session, bool) {
	sess, ok := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "SessionNotFound"))
		return nil, false
	}
	return sess, true
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, viewOf(sess))
}

type answerRequest struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

func (h *Handler) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := sess.RecordAnswer(req.QuestionIndex, req.Answer); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondData(w, http.StatusOK, viewOf(sess))
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	score, err := sess.Grade()
	if err != nil {
		if errors.Is(err, quiz.ErrNotAllAnswered) {
			respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "NotAllAnswered"))
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	correct, total := sess.CorrectCount(), sess.QuestionCount()
	respondData(w, http.StatusOK, map[string]any{
		"score":          score,
		"correctAnswers": correct,
		"totalQuestions": total,
		"message": i18n.Td(r.Context(), "ScoreSummary", map[string]any{
			"Correct": correct,
			"Total":   total,
		}),
	})
}

type resetRequest struct {
	QuizText string `json:"quizText"`
}

// handleResetSession swaps in freshly generated quiz text and clears all
// recorded answers and the score.
func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.QuizText == "" {
		respondError(w, http.StatusBadRequest, "quizText is required")
		return
	}
	sess.Reset(req.QuizText)
	if sess.QuestionCount() == 0 {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"error":   i18n.T(r.Context(), "UnrecognizedQuizFormat"),
			"rawText": req.QuizText,
		})
		return
	}
	respondData(w, http.StatusOK, viewOf(sess))
}

type submitRequest struct {
	TeamID int64 `json:"teamId"`
}

// handleSubmitResult folds a graded session into the team's evaluation
// record and discards the session on success.
func (h *Handler) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !sess.State().Graded {
		if _, err := sess.Grade(); err != nil {
			respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "NotAllAnswered"))
			return
		}
	}

	user := model.UserFromContext(r.Context())
	ev, err := h.svc.ApplyQuizResult(req.TeamID, user.ID, sess.BuildResult())
	if err != nil {
		switch {
		case errors.Is(err, evaluation.ErrNoMembers):
			respondError(w, http.StatusNotFound, i18n.T(r.Context(), "NoValidMembers"))
		case errors.Is(err, evaluation.ErrValidation):
			respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidEvaluation"))
		default:
			slog.Error("quiz result submission failed",
				"session_id", sess.ID, "team_id", req.TeamID, "error", err)
			respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		}
		return
	}

	h.sessions.Delete(sess.ID)
	respondData(w, http.StatusOK, ev)
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
