package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/session"
)

var (
	errUnknownCategory       = errors.New("category not found")
	errUnknownQuestion       = errors.New("question not in this quiz")
	errRecommendationsOff    = errors.New("recommendations are not configured")
	errMissingCategoryFilter = errors.New("category_id is required")
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownSession),
		errors.Is(err, errUnknownCategory),
		errors.Is(err, errUnknownQuestion):
		return http.StatusNotFound
	case errors.Is(err, errMissingCategoryFilter):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoQuestionsAvailable),
		errors.Is(err, quiz.ErrEmptyQuestionSet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrUnanswered),
		errors.Is(err, session.ErrStaleSession),
		errors.Is(err, session.ErrNotCompleted),
		errors.Is(err, quiz.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, history.ErrRecommendationGeneration):
		return http.StatusBadGateway
	case errors.Is(err, errRecommendationsOff),
		errors.Is(err, session.ErrHistoryFetch):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
