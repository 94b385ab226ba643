// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the published message view, statistics, and transaction
// status over a read-only JSON surface for presentation layers that poll
// rather than subscribe.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/botcipher/cipherchat"
)

const (
	MessagesPath = "/messages"
	StatsPath    = "/stats"
	StatusPath   = "/status"
)

type messageResponse struct {
	ID             string  `json:"id"`
	Content        string  `json:"content"`
	Timestamp      uint64  `json:"timestamp"`
	IsUser         bool    `json:"isUser"`
	IsVerified     bool    `json:"isVerified"`
	DecryptedValue *uint64 `json:"decryptedValue,omitempty"`
}

type statsResponse struct {
	TotalMessages     int     `json:"totalMessages"`
	EncryptedMessages int     `json:"encryptedMessages"`
	VerifiedMessages  int     `json:"verifiedMessages"`
	AvgResponseTime   float64 `json:"avgResponseTime"`
}

type statusResponse struct {
	Visible bool   `json:"visible"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the read-only view of the chat state.
type Server struct {
	logger *zap.Logger
	repo   *cipherchat.Repository
	status *cipherchat.StatusChannel
}

func NewServer(logger *zap.Logger, repo *cipherchat.Repository, status *cipherchat.StatusChannel) *Server {
	return &Server{
		logger: logger,
		repo:   repo,
		status: status,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(MessagesPath, s.handleMessages)
	mux.HandleFunc(StatsPath, s.handleStats)
	mux.HandleFunc(StatusPath, s.handleStatus)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	messages := s.repo.Messages()
	out := make([]messageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageResponse{
			ID:         m.ID,
			Content:    m.Content,
			Timestamp:  m.Timestamp,
			IsUser:     m.IsUser,
			IsVerified: m.IsVerified,
		}
		if m.IsVerified {
			value := m.DecryptedValue
			out[i].DecryptedValue = &value
		}
	}
	s.writeJSON(w, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats := s.repo.Stats()
	s.writeJSON(w, statsResponse{
		TotalMessages:     stats.TotalMessages,
		EncryptedMessages: stats.EncryptedMessages,
		VerifiedMessages:  stats.VerifiedMessages,
		AvgResponseTime:   stats.AvgResponseTime,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	current := s.status.Current()
	s.writeJSON(w, statusResponse{
		Visible: current.Visible,
		Status:  string(current.Kind),
		Message: current.Message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Error writing response", zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, httpStatusCode int, errorMsg string) {
	resp, err := json.Marshal(errorResponse{Error: errorMsg})
	if err != nil {
		msg := "Error marshalling JSON error response"
		s.logger.Error(msg, zap.Error(err))
		resp = []byte(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)

	if _, err := w.Write(resp); err != nil {
		s.logger.Error("Error writing error response", zap.Error(err))
	}
}
