package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/metadata"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/service"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/webhook"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port         int
	provisioning *service.ProvisioningService
	queue        *service.ProvisioningQueue
	registry     metadata.TemplateRegistry
	relay        *webhook.Relay
}

// NewServer wires the routes. queue may be nil, in which case async
// provisioning requests are refused.
func NewServer(httpPort int, provisioning *service.ProvisioningService, queue *service.ProvisioningQueue,
	registry metadata.TemplateRegistry, relay *webhook.Relay) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		provisioning: provisioning,
		queue:        queue,
		registry:     registry,
		relay:        relay,
		Port:         httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/users/{id}/workflows", s.HandleGetUserWorkflows).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}/workflows", s.HandleCreateUserWorkflows).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/workflows", s.HandleEnsureUserWorkflows).Methods(http.MethodPut)
	router.HandleFunc("/users/{id}/workflows/drift", s.HandleInspectUserWorkflows).Methods(http.MethodGet)

	router.HandleFunc("/events/{kind}", s.HandleEvent).Methods(http.MethodPost)

	router.HandleFunc("/templates", s.HandleGetTemplates).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("http request", zap.String("method", r.Method), zap.String("uri", r.RequestURI))
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, payload interface{}) {
	respondWithJSON(w, http.StatusOK, payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
