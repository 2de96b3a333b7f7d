package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 500
)

// StateView is the JSON form of the timer state.
type StateView struct {
	Mode                   model.Mode `json:"mode"`
	RemainingSeconds       int        `json:"remainingSeconds"`
	DurationSeconds        int        `json:"durationSeconds"`
	Running                bool       `json:"running"`
	SessionIndex           int        `json:"sessionIndex"`
	SessionsUntilLongBreak int        `json:"sessionsUntilLongBreak"`
	CompletedWorkSessions  int        `json:"completedWorkSessions"`
	SessionStartTimestamp  *int64     `json:"sessionStartTimestamp"`
	TotalFocusSecondsToday int        `json:"totalFocusSecondsToday"`
	Goal                   string     `json:"goal,omitempty"`
	SessionID              string     `json:"sessionId,omitempty"`
}

// NewStateView renders state against settings.
func NewStateView(state model.TimerState, settings model.Settings) StateView {
	view := StateView{
		Mode:                   state.Mode,
		RemainingSeconds:       state.RemainingSeconds,
		DurationSeconds:        settings.DurationFor(state.Mode),
		Running:                state.Running,
		SessionIndex:           state.SessionIndex,
		SessionsUntilLongBreak: settings.SessionsUntilLongBreak,
		CompletedWorkSessions:  state.CompletedWorkSessions,
		TotalFocusSecondsToday: state.TotalFocusSecondsToday,
		Goal:                   state.Goal,
		SessionID:              state.SessionID,
	}
	if state.SessionStartTimestamp != nil {
		started := state.SessionStartTimestamp.UnixMilli()
		view.SessionStartTimestamp = &started
	}
	return view
}

type startRequest struct {
	Goal string `json:"goal"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type foregroundRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.badRequest(c, err)
			return
		}
	}
	s.opts.Timer.Start(req.Goal)
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) handlePause(c *gin.Context) {
	s.opts.Timer.Pause()
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) handleReset(c *gin.Context) {
	s.opts.Timer.Reset()
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) handleMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err == nil {
		err = s.opts.Timer.ChangeMode(mode)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) handleForeground(c *gin.Context) {
	if s.opts.Foreground == nil {
		s.notConfigured(c, "foreground signal")
		return
	}
	var req foregroundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	s.opts.Foreground.Set(*req.Active)
	c.JSON(http.StatusOK, gin.H{
		"active": s.opts.Foreground.Active(),
		"state":  s.view(),
	})
}

func (s *Server) handleSessions(c *gin.Context) {
	if s.opts.Sessions == nil {
		s.notConfigured(c, "session store")
		return
	}
	limit := defaultSessionLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.badRequest(c, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(parsed, maxSessionLimit)
	}

	sessions, err := s.opts.Sessions.List(c.Request.Context(), s.opts.UserID, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if sessions == nil {
		sessions = []model.SessionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.opts.Metrics == nil {
		s.notConfigured(c, "metrics")
		return
	}
	s.opts.Metrics.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) view() StateView {
	return NewStateView(s.opts.Timer.State(), s.opts.Timer.Settings())
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"code": "E_BAD_REQUEST", "message": err.Error()},
	})
}

func (s *Server) notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": gin.H{"code": "E_NOT_CONFIGURED", "message": what + " is not configured"},
	})
}

// writeError maps stable error classes to HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errclass.ErrModeInvalid),
		errors.Is(err, errclass.ErrSettingsInvalid),
		errors.Is(err, errclass.ErrConfigInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, errclass.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	code := "E_INTERNAL"
	message := err.Error()
	var classified *errclass.Error
	if errors.As(err, &classified) {
		code = classified.Code
		message = classified.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("control api request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}
