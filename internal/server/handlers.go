package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pearcec/calagent/internal/agent"
)

// JSON-RPC error codes used by /ai-analytics.
const (
	rpcInvalidParams = -32602
	rpcInternalError = -32603
)

type freeBusyRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Timezone  string `json:"timezone"`
}

type aiQueryRequest struct {
	Question string `json:"question"`
	Timezone string `json:"timezone"`
}

type analyticsRequest struct {
	UserPrompt string          `json:"userPrompt"`
	JSONData   json.RawMessage `json:"jsonData"`
	ID         any             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	Error   rpcError `json:"error"`
	ID      any      `json:"id"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrQuestionRequired),
		errors.Is(err, agent.ErrDateRangeRequired),
		errors.Is(err, agent.ErrInvalidDate),
		errors.Is(err, agent.ErrInvalidZone),
		errors.Is(err, agent.ErrPromptRequired):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrNoCalendarData):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
}

func (s *Server) handleEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("max_results", strconv.Itoa(agent.DefaultMaxResults)))
	if err != nil || limit <= 0 {
		limit = agent.DefaultMaxResults
	}

	events, err := s.svc.Upcoming(c.Request.Context(), limit, c.Query("timezone"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleToday(c *gin.Context) {
	result, err := s.svc.Today(c.Request.Context(), c.Query("timezone"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleFreeBusy(c *gin.Context) {
	var req freeBusyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	report, err := s.svc.FreeBusy(c.Request.Context(), req.StartDate, req.EndDate, req.Timezone)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleAIQuery(c *gin.Context) {
	var req aiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	answer, err := s.svc.Ask(c.Request.Context(), req.Question, req.Timezone)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) handleAIAnalytics(c *gin.Context) {
	var req analyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.rpcFail(c, nil, http.StatusBadRequest, rpcInvalidParams, "invalid JSON body")
		return
	}

	text, err := s.svc.Analyze(c.Request.Context(), req.UserPrompt, analyticsData(req.JSONData))
	if err != nil {
		c.Error(err)
		code := rpcInternalError
		if errors.Is(err, agent.ErrPromptRequired) {
			code = rpcInvalidParams
		}
		s.rpcFail(c, req.ID, statusFor(err), code, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": gin.H{"text": text}})
}

func (s *Server) rpcFail(c *gin.Context, id any, status, code int, msg string) {
	c.JSON(status, rpcErrorResponse{
		JSONRPC: "2.0",
		Error:   rpcError{Code: code, Message: msg},
		ID:      id,
	})
}

// analyticsData accepts jsonData either as a JSON string (used verbatim)
// or as any other JSON value (used as its encoded text).
func analyticsData(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
