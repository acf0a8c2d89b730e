package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/service"
	"go.uber.org/zap"
)

type provisionRequest struct {
	Email string `json:"email"`
}

func (s *Server) HandleGetUserWorkflows(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["id"]
	instances, err := s.provisioning.GetUserWorkflows(r.Context(), userId)
	if err != nil {
		logger.Error("error reading user workflows", zap.String("user", userId), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error reading user workflows")
		return
	}
	if instances == nil {
		instances = []model.WorkflowInstance{}
	}
	respondOK(w, map[string]any{"userId": userId, "workflows": instances})
}

func (s *Server) HandleCreateUserWorkflows(w http.ResponseWriter, r *http.Request) {
	s.handleProvision(w, r, s.provisioning.CreateUserWorkflows)
}

// HandleEnsureUserWorkflows provisions missing workflows. With ?async=true
// the request is queued and answered with 202.
func (s *Server) HandleEnsureUserWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		s.handleEnqueue(w, r)
		return
	}
	s.handleProvision(w, r, s.provisioning.EnsureUserWorkflows)
}

type provisionFunc func(ctx context.Context, userId string, userEmail string) (*service.Report, error)

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request, fn provisionFunc) {
	userId := mux.Vars(r)["id"]
	req, ok := decodeProvisionRequest(w, r)
	if !ok {
		return
	}
	report, err := fn(r.Context(), userId, req.Email)
	if err != nil {
		logger.Error("error provisioning user workflows", zap.String("user", userId), zap.Error(err))
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respondWithError(w, http.StatusServiceUnavailable, "provisioning timed out")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	code := http.StatusOK
	if !report.Complete() {
		code = http.StatusMultiStatus
	}
	respondWithJSON(w, code, report)
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["id"]
	req, ok := decodeProvisionRequest(w, r)
	if !ok {
		return
	}
	if userId == "" {
		respondWithError(w, http.StatusBadRequest, "user id can not be empty")
		return
	}
	if s.queue == nil || !s.queue.Enqueue(service.ProvisionRequest{UserId: userId, UserEmail: req.Email}) {
		respondWithError(w, http.StatusServiceUnavailable, "provisioning queue is full")
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]any{"userId": userId, "queued": true})
}

func (s *Server) HandleInspectUserWorkflows(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["id"]
	report, err := s.provisioning.InspectUserWorkflows(r.Context(), userId)
	if err != nil {
		logger.Error("error inspecting user workflows", zap.String("user", userId), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error inspecting user workflows")
		return
	}
	respondOK(w, report)
}

// decodeProvisionRequest accepts an empty body.
func decodeProvisionRequest(w http.ResponseWriter, r *http.Request) (provisionRequest, bool) {
	var req provisionRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}
