package sessionapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/ctxlog"
	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Session is the controller surface the routes drive.
type Session interface {
	Select(ctx context.Context, appID graph.ApplicationID) *controller.Load
	ClearCache(ctx context.Context) (*controller.Load, error)
	Retry(ctx context.Context) (*controller.Load, error)
	ClearAll(ctx context.Context)
	Status() controller.Status
	Snapshot() (*graph.Snapshot, bool)
	AddNode(ctx context.Context, node graph.NodeRecord) (string, error)
	MoveNode(ctx context.Context, id string, pos graph.Position) error
	UpdateNode(ctx context.Context, id string, fields map[string]any) error
	Connect(ctx context.Context, source, target string) (string, error)
	RemoveSelection(ctx context.Context, nodeIDs, edgeIDs []string) error
	SetViewport(ctx context.Context, v graph.Viewport) error
}

const maxBodyBytes = 1 << 20

// AppLister lists the applications a UI can select.
type AppLister interface {
	ListApps(ctx context.Context) ([]graph.Application, error)
}

// Server serves the session routes.
type Server struct {
	session     Session
	apps        AppLister
	logger      *slog.Logger
	waitTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithWaitTimeout bounds ?wait=true requests. Zero leaves it to the request
// context.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.waitTimeout = d
	}
}

// WithApps enables GET /session/apps.
func WithApps(apps AppLister) Option {
	return func(s *Server) {
		s.apps = apps
	}
}

// New creates a Server.
func New(session Session, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{session: session, logger: logger.With("component", "sessionapi")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount registers the routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Use(s.withLogger)
		r.Get("/", s.getSession)
		r.Get("/apps", s.listApps)
		r.Post("/select", s.selectApp)
		r.Post("/clear-cache", s.clearCache)
		r.Post("/retry", s.retry)
		r.Delete("/cache", s.clearAll)
		r.Post("/nodes", s.addNode)
		r.Patch("/nodes/{nodeId}", s.updateNode)
		r.Put("/nodes/{nodeId}/position", s.moveNode)
		r.Post("/edges", s.connect)
		r.Delete("/selection", s.removeSelection)
		r.Put("/viewport", s.setViewport)
	})
}

// Handler returns a standalone router serving only the session routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.Mount(r)
	return r
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("method", r.Method, "path", r.URL.Path)
		if id := middleware.GetReqID(r.Context()); id != "" {
			logger = logger.With("request_id", id)
		}
		next.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))
	})
}

// View is the response body of every successful request.
type View struct {
	AppID      graph.ApplicationID `json:"appId,omitempty"`
	State      controller.State    `json:"state"`
	Origin     controller.Origin   `json:"origin,omitempty"`
	Generation uint64              `json:"generation"`
	Error      string              `json:"error,omitempty"`
	Outcome    string              `json:"outcome,omitempty"`
	Graph      *graph.Snapshot     `json:"graph,omitempty"`
	CreatedID  string              `json:"id,omitempty"`
}

func (s *Server) view() View {
	st := s.session.Status()
	v := View{AppID: st.AppID, State: st.State, Origin: st.Origin, Generation: st.Generation}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	if snap, ok := s.session.Snapshot(); ok {
		v.Graph = snap
	}
	return v
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, http.StatusOK, s.view())
}

func (s *Server) listApps(w http.ResponseWriter, r *http.Request) {
	if s.apps == nil {
		s.write(w, r, http.StatusNotFound, errorBody{Error: "application list is not available"})
		return
	}
	apps, err := s.apps.ListApps(r.Context())
	if err != nil {
		ctxlog.FromContext(r.Context()).Warn("Failed to list applications.", "error", err)
		s.write(w, r, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	s.write(w, r, http.StatusOK, apps)
}

type selectRequest struct {
	AppID graph.ApplicationID `json:"appId"`
}

func (s *Server) selectApp(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctxlog.FromContext(r.Context()).Info("Selecting application.", "app_id", req.AppID)
	s.respondLoad(w, r, s.session.Select(r.Context(), req.AppID))
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	load, err := s.session.ClearCache(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondLoad(w, r, load)
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	load, err := s.session.Retry(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondLoad(w, r, load)
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	s.session.ClearAll(r.Context())
	s.write(w, r, http.StatusOK, s.view())
}

func (s *Server) respondLoad(w http.ResponseWriter, r *http.Request, load *controller.Load) {
	if r.URL.Query().Get("wait") != "true" {
		s.write(w, r, http.StatusAccepted, s.view())
		return
	}

	ctx := r.Context()
	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}
	outcome, err := load.Wait(ctx)
	if err != nil && outcome == controller.OutcomePending {
		s.fail(w, r, fmt.Errorf("waiting for load: %w", err))
		return
	}
	v := s.view()
	v.Outcome = outcome.String()
	status := http.StatusOK
	if outcome == controller.OutcomeFailed {
		status = http.StatusBadGateway
	}
	s.write(w, r, status, v)
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var node graph.NodeRecord
	if !s.decode(w, r, &node) {
		return
	}
	id, err := s.session.AddNode(r.Context(), node)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v := s.view()
	v.CreatedID = id
	s.write(w, r, http.StatusCreated, v)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !s.decode(w, r, &fields) {
		return
	}
	if err := s.session.UpdateNode(r.Context(), chi.URLParam(r, "nodeId"), fields); err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, s.view())
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	var pos graph.Position
	if !s.decode(w, r, &pos) {
		return
	}
	if err := s.session.MoveNode(r.Context(), chi.URLParam(r, "nodeId"), pos); err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, s.view())
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.session.Connect(r.Context(), req.Source, req.Target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v := s.view()
	v.CreatedID = id
	s.write(w, r, http.StatusCreated, v)
}

type selectionRequest struct {
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
}

func (s *Server) removeSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.session.RemoveSelection(r.Context(), req.Nodes, req.Edges); err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, s.view())
}

func (s *Server) setViewport(w http.ResponseWriter, r *http.Request) {
	var v graph.Viewport
	if !s.decode(w, r, &v) {
		return
	}
	if err := s.session.SetViewport(r.Context(), v); err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, s.view())
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.write(w, r, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := ctxlog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed.", "error", err)
	} else {
		logger.Debug("Request rejected.", "status", status, "error", err)
	}
	s.write(w, r, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrNotHydrated), errors.Is(err, controller.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, controller.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrInvalidField),
		errors.Is(err, controller.ErrInvalidNode),
		errors.Is(err, controller.ErrInvalidPosition),
		errors.Is(err, controller.ErrInvalidViewport):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, controller.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.FromContext(r.Context()).Error("Failed to encode response.", "error", err)
	}
}
