package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/perspecta/internal/logger"
	"github.com/ppiankov/perspecta/internal/model"
)

const (
	healthMessage   = "Fake News Detection API is running"
	messageInternal = "An internal error occurred while checking this statement."
)

type detectRequest struct {
	Query string `json:"query"`
}

// detect runs the pipeline for the posted claim
func (s *Server) detect(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), s.logger)

	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Unreadable bodies are treated as an empty query
		log.Debug("Unreadable detect body", logger.Error(err))
		req = detectRequest{}
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	outcome, err := s.checker.Check(ctx, req.Query)
	if err != nil {
		log.Error("Check failed", logger.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": messageInternal,
		})
		return
	}

	if outcome.Status == model.StatusError && outcome.Details != "" {
		log.Error("Check degraded to error",
			logger.String("message", outcome.Message),
			logger.String("details", outcome.Details),
		)
	}

	status, body := Envelope(outcome)
	c.JSON(status, body)
}

// Envelope maps an outcome to the HTTP status and JSON body of /api/detect
func Envelope(o *model.Outcome) (int, gin.H) {
	switch o.Status {
	case model.StatusSuccess:
		return http.StatusOK, gin.H{"summary": o.Summary}
	case model.StatusNoResults:
		return http.StatusOK, gin.H{
			"status":   string(model.StatusNoResults),
			"message":  o.Message,
			"details":  o.Details,
			"articles": []any{},
		}
	case model.StatusRejected:
		return http.StatusOK, gin.H{"status": "error", "message": o.Message}
	default:
		if o.Message == model.MessageEmptyQuery {
			return http.StatusOK, gin.H{"status": "error", "message": o.Message}
		}
		message := o.Message
		if message == "" {
			message = messageInternal
		}
		return http.StatusInternalServerError, gin.H{"status": "error", "message": message}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": healthMessage})
}
