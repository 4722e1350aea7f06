package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/sm2"
	"github.com/conorfennell/grestudy/internal/storage"
)

type createItemRequest struct {
	Kind      string   `json:"kind" binding:"required,oneof=mistake vocabulary"`
	Category  string   `json:"category" binding:"required"`
	Topic     string   `json:"topic"`
	SubTopic  string   `json:"sub_topic"`
	ErrorType string   `json:"error_type"`
	Prompt    string   `json:"prompt" binding:"required"`
	Answer    string   `json:"answer"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
}

type submitReviewRequest struct {
	Quality *int `json:"quality" binding:"required"`
}

type itemResponse struct {
	domain.Item
	Schedule domain.ScheduleState `json:"schedule"`
}

func toResponse(e domain.Entry) itemResponse {
	return itemResponse{Item: e.Item, Schedule: e.Schedule}
}

func (s *Server) handleCreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cat, err := domain.ParseCategory(req.Category)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	entry, err := s.store.CreateItem(c.Request.Context(), domain.Item{
		Kind:      domain.Kind(req.Kind),
		Category:  cat,
		Topic:     strings.TrimSpace(req.Topic),
		SubTopic:  strings.TrimSpace(req.SubTopic),
		ErrorType: strings.TrimSpace(req.ErrorType),
		Prompt:    strings.TrimSpace(req.Prompt),
		Answer:    strings.TrimSpace(req.Answer),
		Notes:     req.Notes,
		Tags:      req.Tags,
	}, s.now())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	s.log.Info("item created", "item_id", entry.Item.ID, "kind", entry.Item.Kind, "category", entry.Item.Category)
	c.JSON(http.StatusCreated, toResponse(entry))
}

func (s *Server) handleListItems(c *gin.Context) {
	var f storage.Filter
	if v := c.Query("kind"); v != "" {
		f.Kind = domain.Kind(v)
		if !f.Kind.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unknown kind %q", v))
			return
		}
	}
	if v := c.Query("category"); v != "" {
		cat, err := domain.ParseCategory(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		f.Category = cat
	}
	f.Topic = c.Query("topic")
	if v := c.Query("mastered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", errors.New("mastered must be a boolean"))
			return
		}
		f.Mastered = &b
	}

	entries, err := s.store.ListItems(c.Request.Context(), f)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := make([]itemResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (s *Server) handleGetItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	entry, err := s.store.FindItem(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(entry))
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteItem(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	s.log.Info("item deleted", "item_id", id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTodayReviews(c *gin.Context) {
	today := s.now()
	if v := c.Query("date"); v != "" {
		d, err := domain.ParseDay(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", errors.New("date must be YYYY-MM-DD"))
			return
		}
		today = d
	}

	q, err := s.sched.TodayReviews(c.Request.Context(), today)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":   domain.Day(today).Format(domain.DateLayout),
		"quant":  q.Quant,
		"verbal": q.Verbal,
	})
}

func (s *Server) handleSubmitReview(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	state, err := s.sched.SubmitReview(c.Request.Context(), id, sm2.Quality(*req.Quality))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": id, "schedule": state})
}

func (s *Server) handleResetItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	state, err := s.sched.ResetItem(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": id, "schedule": state})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context(), s.now())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": stats})
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_request", errors.New("item id must be a positive integer"))
		return 0, false
	}
	return id, true
}
