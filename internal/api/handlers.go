package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/session"
)

const (
	latestHistoryLimit   = 3
	recommendationWindow = 20
)

type StartQuizRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
}

type AnswerRequest struct {
	Option string `json:"option" binding:"required"`
}

// QuestionView is a question as sent to a taker. The correct option is
// only revealed through the completion review.
type QuestionView struct {
	ID         string            `json:"id"`
	Text       string            `json:"question"`
	Options    map[string]string `json:"options"`
	Difficulty int               `json:"difficulty,omitempty"`
}

type QuizView struct {
	SessionID  string              `json:"session_id"`
	Phase      quiz.Phase          `json:"phase"`
	Category   quiz.Category       `json:"category"`
	Index      int                 `json:"index"`
	Total      int                 `json:"total"`
	Current    *QuestionView       `json:"current,omitempty"`
	Questions  []QuestionView      `json:"questions"`
	Answers    quiz.AnswerMap      `json:"answers"`
	StartedAt  time.Time           `json:"started_at,omitzero"`
	Completion *session.Completion `json:"completion,omitempty"`
	Warning    string              `json:"warning,omitempty"`
}

type HistoryResponse struct {
	CategoryID  string         `json:"category_id,omitempty"`
	Attempts    []quiz.Attempt `json:"attempts"`
	SnapshotKey string         `json:"snapshot_key"`
	Latest      *quiz.Attempt  `json:"latest,omitempty"`
	Warning     string         `json:"warning,omitempty"`
}

type RecommendationsResponse struct {
	history.Result
	Warning string `json:"warning,omitempty"`
}

func viewOf(v session.View) QuizView {
	out := QuizView{
		SessionID:  v.SessionID,
		Phase:      v.Quiz.Phase,
		Category:   v.Quiz.Category,
		Index:      v.Quiz.Index,
		Total:      v.Quiz.Total,
		Questions:  make([]QuestionView, len(v.Quiz.Questions)),
		Answers:    v.Quiz.Answers,
		StartedAt:  v.Quiz.StartedAt,
		Completion: v.Completion,
	}
	for i, q := range v.Quiz.Questions {
		out.Questions[i] = QuestionView{ID: q.ID, Text: q.Text, Options: q.Options, Difficulty: q.Difficulty}
	}
	if v.Quiz.Phase == quiz.PhaseInProgress && v.Quiz.Index < len(out.Questions) {
		cur := out.Questions[v.Quiz.Index]
		out.Current = &cur
	}
	return out
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.opts.Backend.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) startQuiz(c *gin.Context) {
	var req StartQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	ctx := c.Request.Context()
	profile := profileFrom(c)

	category, ok, err := s.opts.Backend.GetCategory(ctx, req.CategoryID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, errUnknownCategory)
		return
	}

	ctrl := session.NewController(profile, session.Options{
		Questions: s.opts.Backend,
		Attempts:  s.opts.Backend,
		History:   s.opts.Backend,
		Publisher: s.publisher(),
		Now:       s.opts.Now,
	})
	tag, err := ctrl.Begin(ctx, category)
	if err != nil {
		writeError(c, err)
		return
	}
	s.sessions.put(tag, profile.UserID, ctrl)
	c.JSON(http.StatusCreated, viewOf(ctrl.Snapshot()))
}

// controller resolves the :session parameter for the caller, writing the
// error response when it cannot.
func (s *Server) controller(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := s.sessions.get(c.Param("session"), profileFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return ctrl, true
}

func (s *Server) getQuiz(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(ctrl.Snapshot()))
}

func (s *Server) answerQuestion(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	questionID := c.Param("question")
	if !hasQuestion(ctrl.Snapshot(), questionID) {
		writeError(c, errUnknownQuestion)
		return
	}
	if err := ctrl.SelectAnswer(questionID, req.Option); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(ctrl.Snapshot()))
}

func hasQuestion(v session.View, id string) bool {
	for _, q := range v.Quiz.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// nextQuestion advances the quiz. On the last question it completes, saves
// and reloads history; a failed save still returns the scored result with
// a warning.
func (s *Server) nextQuestion(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}

	// The save must not be cut short by the client going away.
	ctx := context.WithoutCancel(c.Request.Context())
	comp, err := ctrl.Finish(ctx)

	var warning string
	switch {
	case err == nil:
	case comp != nil && errors.Is(err, session.ErrPersistence):
		warning = "your result could not be saved: " + err.Error()
	case comp != nil && errors.Is(err, session.ErrHistoryFetch):
		warning = "your history could not be reloaded"
	default:
		writeError(c, err)
		return
	}

	if comp != nil {
		outcome := "saved"
		if !comp.Persisted() {
			outcome = "failed"
		}
		attemptsSaved.WithLabelValues(comp.Category.ID, outcome).Inc()
	}

	view := viewOf(ctrl.Snapshot())
	view.Warning = warning
	c.JSON(http.StatusOK, view)
}

func (s *Server) previousQuestion(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Previous(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(ctrl.Snapshot()))
}

func (s *Server) deleteQuiz(c *gin.Context) {
	if err := s.sessions.remove(c.Param("session"), profileFrom(c).UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) categoryHistory(c *gin.Context) {
	categoryID := c.Query("category_id")
	if categoryID == "" {
		writeError(c, errMissingCategoryFilter)
		return
	}
	resp := HistoryResponse{CategoryID: categoryID}

	attempts, err := s.opts.Backend.FetchAttemptHistory(c.Request.Context(), profileFrom(c).UserID, categoryID)
	if err != nil {
		attempts = nil
		resp.Warning = session.ErrHistoryFetch.Error()
	}
	c.JSON(http.StatusOK, fillHistory(resp, attempts))
}

func (s *Server) latestHistory(c *gin.Context) {
	var resp HistoryResponse
	attempts, err := s.opts.Backend.RecentAttempts(c.Request.Context(), profileFrom(c).UserID, latestHistoryLimit)
	if err != nil {
		attempts = nil
		resp.Warning = session.ErrHistoryFetch.Error()
	}
	c.JSON(http.StatusOK, fillHistory(resp, attempts))
}

func fillHistory(resp HistoryResponse, attempts []quiz.Attempt) HistoryResponse {
	if attempts == nil {
		attempts = []quiz.Attempt{}
	}
	quiz.SortNewestFirst(attempts)
	resp.Attempts = attempts
	resp.SnapshotKey = history.SnapshotKey(attempts)
	if latest, ok := history.Latest(attempts); ok {
		resp.Latest = &latest
	}
	return resp
}

// recommendations serves the caller's cached recommendations, generating
// new ones when the history changed or refresh=true is passed. If
// generation fails the previous result for the same category is served
// with a warning.
func (s *Server) recommendations(c *gin.Context) {
	if s.opts.Generator == nil {
		writeError(c, errRecommendationsOff)
		return
	}
	ctx := c.Request.Context()
	profile := profileFrom(c)
	categoryID := c.Query("category_id")
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	var (
		attempts []quiz.Attempt
		err      error
	)
	if categoryID != "" {
		attempts, err = s.opts.Backend.FetchAttemptHistory(ctx, profile.UserID, categoryID)
	} else {
		attempts, err = s.opts.Backend.RecentAttempts(ctx, profile.UserID, recommendationWindow)
	}
	if err != nil {
		writeError(c, errors.Join(session.ErrHistoryFetch, err))
		return
	}

	cache := s.cacheFor(profile.UserID)
	load := cache.Load
	if refresh {
		load = cache.Refresh
	}
	res, err := load(ctx, profile, categoryID, attempts)
	if err != nil {
		if prev, ok := cache.Cached(ctx); ok && prev.CategoryID == categoryID {
			c.JSON(http.StatusOK, RecommendationsResponse{Result: prev, Warning: err.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RecommendationsResponse{Result: res})
}
