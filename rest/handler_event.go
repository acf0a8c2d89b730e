package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/webhook"
	"go.uber.org/zap"
)

func (s *Server) HandleEvent(w http.ResponseWriter, r *http.Request) {
	kind := model.EventKind(mux.Vars(r)["kind"])
	var payload map[string]any
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	if userId, _ := payload["userId"].(string); userId == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}
	delivery, err := s.relay.Send(r.Context(), kind, payload)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrUnknownEvent):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, webhook.ErrMissingUser):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, engine.ErrNetwork):
			respondWithError(w, http.StatusBadGateway, err.Error())
		default:
			logger.Error("error relaying event", zap.String("event", string(kind)), zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "error relaying event")
		}
		return
	}
	respondOK(w, delivery)
}
