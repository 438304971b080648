package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AgentCard describes this agent to other agents.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes"`
	DefaultOutputModes []string          `json:"defaultOutputModes"`
	Skills             []AgentSkill      `json:"skills"`
}

type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

func (s *Server) agentCard() AgentCard {
	return AgentCard{
		Name:               "Free-Busy Calendar Agent",
		Description:        "An AI agent that reads your Google Calendar, reports free/busy time and answers questions about your schedule.",
		URL:                s.cfg.PublicURL,
		Version:            s.cfg.Version,
		Capabilities:       AgentCapabilities{},
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain", "application/json"},
		Skills: []AgentSkill{
			{
				ID:          "free_busy_check",
				Name:        "free-busy-check",
				Description: "Checks free/busy status for a date range",
				Examples:    []string{"Am I free on Friday?", "When am I busy tomorrow?"},
			},
			{
				ID:          "calendar_analysis",
				Name:        "calendar-analysis",
				Description: "Answers questions about upcoming events",
				Examples:    []string{"What does my week look like?", "Find me a slot for a 1h meeting"},
			},
		},
	}
}

func (s *Server) handleAgentCard(c *gin.Context) {
	c.JSON(http.StatusOK, s.agentCard())
}
