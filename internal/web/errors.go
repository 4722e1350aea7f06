package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conorfennell/grestudy/internal/review"
	"github.com/conorfennell/grestudy/internal/sm2"
	"github.com/conorfennell/grestudy/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error(), Code: code})
}

// respondDomainError maps a sentinel error onto its HTTP status.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sm2.ErrInvalidQualityScore):
		respondError(c, http.StatusUnprocessableEntity, "invalid_quality", err)
	case errors.Is(err, review.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, review.ErrConcurrentModification):
		respondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, review.ErrAlreadyMastered):
		respondError(c, http.StatusConflict, "already_mastered", err)
	case errors.Is(err, storage.ErrDuplicate):
		respondError(c, http.StatusConflict, "duplicate", err)
	case errors.Is(err, review.ErrStorageUnavailable):
		respondError(c, http.StatusServiceUnavailable, "unavailable", err)
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal server error", Code: "internal"})
	}
}
