package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/onboard/internal/logging"
	presgraph "github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/input"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Engine is the part of the flow engine the HTTP transport drives. Events go
// through Enqueue so that SSE subscribers see steps in processing order.
type Engine interface {
	Enqueue(ctx context.Context, ev domain.Event, deliver ports.DeliverFunc)
	Session(ctx context.Context, conversationID string) (*domain.Session, error)
	Discard(ctx context.Context, conversationID string) error
}

// Graph is the read-only graph view used by GET /graph.
type Graph interface {
	Nodes() []domain.QuestionNode
	Entry() string
	Terminal() string
}

// Server exposes the flow engine as a JSON API.
type Server struct {
	Engine  Engine
	Graph   Graph
	Streams *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	version  string
	validate bool
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGraph enables GET /graph.
func WithGraph(g Graph) Option {
	return func(s *Server) {
		s.Graph = g
	}
}

// WithMetricsHandler mounts a Prometheus handler on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a Server.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	if s.validate {
		validate, err := s.validator()
		if err != nil {
			s.logger.Error("Request validation disabled", "err", err)
		} else {
			r.Use(validate)
		}
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetOpenAPISpec)
	if s.Graph != nil {
		r.Get("/graph", s.GetGraph)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/conversations/{id}", func(r chi.Router) {
		r.Get("/", s.GetConversation)
		r.Delete("/", s.DeleteConversation)
		r.Post("/commands/{name}", s.PostCommand)
		r.Post("/messages", s.PostMessage)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageRequest is the body of POST /v1/conversations/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// PostCommand handles POST /v1/conversations/{id}/commands/{name}.
func (s *Server) PostCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	name, err := input.Sanitize(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.handle(w, r, domain.CommandEvent(id, name))
}

// PostMessage handles POST /v1/conversations/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}

	var body MessageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(input.MaxInputSize())*2+1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.logger.Warn("PostMessage: Invalid request body", "conversation_id", id, "err", err)
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	text, err := input.Sanitize(body.Text)
	if err != nil {
		s.logger.Warn("PostMessage: Input rejected", "conversation_id", id, "err", err, "size", len(body.Text))
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.handle(w, r, domain.TextEvent(id, text))
}

type result struct {
	step *domain.Step
	err  error
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request, ev domain.Event) {
	done := make(chan result, 1)
	s.Engine.Enqueue(r.Context(), ev, func(step *domain.Step, err error) {
		// Runs inside the conversation's isolation section.
		if err == nil {
			if payload, mErr := json.Marshal(step); mErr == nil {
				s.Streams.Broadcast(ev.ConversationID, string(payload))
			}
		}
		done <- result{step: step, err: err}
	})

	res := <-done
	step, err := res.step, res.err
	if err != nil {
		s.logger.Error("Handle failed",
			"conversation_id", ev.ConversationID,
			"request_id", GetRequestID(r.Context()),
			"err", err,
		)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, step)
}

// GetConversation handles GET /v1/conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	sess, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.logger.Error("Session read failed", "conversation_id", id, "err", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteConversation handles DELETE /v1/conversations/{id}.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	if err := s.Engine.Discard(r.Context(), id); err != nil {
		s.logger.Error("Discard failed", "conversation_id", id, "err", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph. ?format=mermaid returns a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	nodes := s.Graph.Nodes()

	if r.URL.Query().Get("format") == "mermaid" {
		var overlay *presgraph.GraphOverlay
		if id := r.URL.Query().Get("conversation_id"); id != "" {
			sess, err := s.Engine.Session(r.Context(), id)
			if err != nil {
				s.writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			overlay = presgraph.OverlayFor(sess)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(presgraph.GenerateMermaid(nodes, s.Graph.Entry(), s.Graph.Terminal(), overlay)))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"entry":    s.Graph.Entry(),
		"terminal": s.Graph.Terminal(),
		"nodes":    nodes,
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "onboard-http",
		"version": s.version,
	})
}

func (s *Server) conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := input.Sanitize(chi.URLParam(r, "id"))
	if err == nil && id == "" {
		err = errors.New("missing conversation id")
	}
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg, RequestID: GetRequestID(r.Context())})
}
