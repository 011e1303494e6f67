package workouts

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsService interface {
	CreateTemplate(ctx context.Context, userID string, template Template, now time.Time) (*Template, error)
	UpdateTemplate(ctx context.Context, userID string, template Template, now time.Time) (*Template, error)
	DeleteTemplate(ctx context.Context, userID, id string) error
	GetTemplate(ctx context.Context, userID, id string) (*Template, error)
	ListTemplates(ctx context.Context, userID string) ([]Template, error)
	Start(ctx context.Context, userID string, params StartParams) (*Session, error)
	LogSet(ctx context.Context, userID, sessionID string, set SetLog, now time.Time) (*Session, error)
	Pause(ctx context.Context, userID, sessionID string, now time.Time) (*Session, error)
	Resume(ctx context.Context, userID, sessionID string, now time.Time) (*Session, error)
	Discard(ctx context.Context, userID, sessionID string, now time.Time) (*Session, error)
	Complete(ctx context.Context, userID, sessionID string, now time.Time) (*CompleteResult, error)
	ActiveSession(ctx context.Context, userID string) (*Session, error)
	ListSessions(ctx context.Context, userID string, status Status) ([]Session, error)
}

type Handler struct {
	service  workoutsService
	userID   string
	now      func() time.Time
	validate *validator.Validate
}

func NewHandler(service workoutsService, userID string, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		service:  service,
		userID:   userID,
		now:      now,
		validate: validator.New(),
	}
}

type StartRequest struct {
	TemplateID string `json:"templateId" validate:"omitempty,uuid"`
	Name       string `json:"name" validate:"max=100"`
	DidWeights bool   `json:"didWeights"`
	DidAbs     bool   `json:"didAbs"`
	TZ         string `json:"tz" validate:"omitempty,timezone"`
}

type ActiveSessionResponse struct {
	Session         *Session `json:"session"`
	DurationSeconds int64    `json:"durationSeconds"`
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/workouts").Subrouter()

	r.HandleFunc("/templates", h.HandleListTemplates).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/templates", h.HandleCreateTemplate).Methods("POST", "OPTIONS").Name("new-template")
	r.HandleFunc("/templates/{id}", h.HandleGetTemplate).Methods("GET", "OPTIONS").Name("get-template")
	r.HandleFunc("/templates/{id}", h.HandleUpdateTemplate).Methods("PUT", "OPTIONS").Name("update-template")
	r.HandleFunc("/templates/{id}", h.HandleDeleteTemplate).Methods("DELETE", "OPTIONS").Name("delete-template")

	r.HandleFunc("/sessions", h.HandleListSessions).Methods("GET", "OPTIONS").Name("list-sessions")
	r.HandleFunc("/sessions", h.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	r.HandleFunc("/sessions/active", h.HandleActiveSession).Methods("GET", "OPTIONS").Name("active-session")
	r.HandleFunc("/sessions/{id}/sets", h.HandleLogSet).Methods("POST", "OPTIONS").Name("log-set")
	r.HandleFunc("/sessions/{id}/{action:pause|resume|complete|discard}", h.HandleSessionAction).
		Methods("POST", "OPTIONS").Name("session-action")
}

func (h *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.templates.list")
	defer span.End()

	templates, err := h.service.ListTemplates(ctx, h.userID)
	if err != nil {
		writeServiceError(w, "list templates", err)
		return
	}
	pkg.WriteJSON(w, templates, http.StatusOK)
}

func (h *Handler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.templates.create")
	defer span.End()

	var template Template
	if !h.decodeAndValidate(w, r, &template) {
		return
	}

	created, err := h.service.CreateTemplate(ctx, h.userID, template, h.now())
	if err != nil {
		writeServiceError(w, "create template", err)
		return
	}
	pkg.WriteJSON(w, created, http.StatusCreated)
}

func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.templates.get")
	defer span.End()

	template, err := h.service.GetTemplate(ctx, h.userID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "get template", err)
		return
	}
	pkg.WriteJSON(w, template, http.StatusOK)
}

func (h *Handler) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.templates.update")
	defer span.End()

	var template Template
	if !h.decodeAndValidate(w, r, &template) {
		return
	}
	template.ID = mux.Vars(r)["id"]

	updated, err := h.service.UpdateTemplate(ctx, h.userID, template, h.now())
	if err != nil {
		writeServiceError(w, "update template", err)
		return
	}
	pkg.WriteJSON(w, updated, http.StatusOK)
}

func (h *Handler) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.templates.delete")
	defer span.End()

	if err := h.service.DeleteTemplate(ctx, h.userID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, "delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.list")
	defer span.End()

	status := Status(r.URL.Query().Get("status"))
	switch status {
	case "", StatusActive, StatusPaused, StatusCompleted, StatusDiscarded:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	sessions, err := h.service.ListSessions(ctx, h.userID, status)
	if err != nil {
		writeServiceError(w, "list sessions", err)
		return
	}
	pkg.WriteJSON(w, sessions, http.StatusOK)
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.start")
	defer span.End()

	var req StartRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.service.Start(ctx, h.userID, StartParams{
		TemplateID: req.TemplateID,
		Name:       req.Name,
		DidWeights: req.DidWeights,
		DidAbs:     req.DidAbs,
		TZ:         req.TZ,
		Now:        h.now(),
	})
	if err != nil {
		writeServiceError(w, "start session", err)
		return
	}
	pkg.WriteJSON(w, session, http.StatusCreated)
}

func (h *Handler) HandleActiveSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.active")
	defer span.End()

	session, err := h.service.ActiveSession(ctx, h.userID)
	if err != nil {
		writeServiceError(w, "get active session", err)
		return
	}
	pkg.WriteJSON(w, ActiveSessionResponse{
		Session:         session,
		DurationSeconds: int64(session.Duration(h.now()) / time.Second),
	}, http.StatusOK)
}

func (h *Handler) HandleLogSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.logset")
	defer span.End()

	var set SetLog
	if !h.decodeAndValidate(w, r, &set) {
		return
	}

	session, err := h.service.LogSet(ctx, h.userID, mux.Vars(r)["id"], set, h.now())
	if err != nil {
		writeServiceError(w, "log set", err)
		return
	}
	pkg.WriteJSON(w, session, http.StatusOK)
}

func (h *Handler) HandleSessionAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.action")
	defer span.End()

	vars := mux.Vars(r)
	sessionID, action := vars["id"], vars["action"]
	now := h.now()

	var (
		result any
		err    error
	)
	switch action {
	case "pause":
		result, err = h.service.Pause(ctx, h.userID, sessionID, now)
	case "resume":
		result, err = h.service.Resume(ctx, h.userID, sessionID, now)
	case "discard":
		result, err = h.service.Discard(ctx, h.userID, sessionID, now)
	case "complete":
		result, err = h.service.Complete(ctx, h.userID, sessionID, now)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeServiceError(w, action+" session", err)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := pkg.DecodeJSON(r, dst); err != nil {
		log.Errorf("workouts, decode request: %s", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrTemplateNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrNoActiveSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSessionAlreadyActive):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}
