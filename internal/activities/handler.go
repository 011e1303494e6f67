package activities

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/weeks"
	"github.com/2beens/gymstreak/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=activities_test

type activitiesService interface {
	Create(ctx context.Context, userID string, activity Activity) (*Activity, error)
	List(ctx context.Context, userID string, kind Kind) ([]Activity, error)
	Delete(ctx context.Context, userID, id string) error
	WeeklyMinutes(ctx context.Context, userID, weekID string) (*WeekSummary, error)
}

type Handler struct {
	service  activitiesService
	userID   string
	validate *validator.Validate
}

func NewHandler(service activitiesService, userID string) *Handler {
	return &Handler{
		service:  service,
		userID:   userID,
		validate: validator.New(),
	}
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/activities").Subrouter()
	r.HandleFunc("", h.HandleList).Methods("GET", "OPTIONS").Name("list-activities")
	r.HandleFunc("", h.HandleCreate).Methods("POST", "OPTIONS").Name("new-activity")
	r.HandleFunc("/weeks/{week}", h.HandleWeek).Methods("GET", "OPTIONS").Name("week-activities")
	r.HandleFunc("/{id}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-activity")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.list")
	defer span.End()

	kind := Kind(r.URL.Query().Get("kind"))
	if kind != "" && kind != KindCardio && kind != KindSquash {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	list, err := h.service.List(ctx, h.userID, kind)
	if err != nil {
		log.Errorf("list activities: %s", err)
		http.Error(w, "list activities failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.create")
	defer span.End()

	var activity Activity
	if err := pkg.DecodeJSON(r, &activity); err != nil {
		log.Errorf("activities, decode request: %s", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(activity); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(ctx, h.userID, activity)
	if err != nil {
		log.Errorf("create activity: %s", err)
		http.Error(w, "create activity failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, created, http.StatusCreated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.delete")
	defer span.End()

	err := h.service.Delete(ctx, h.userID, mux.Vars(r)["id"])
	switch {
	case errors.Is(err, ErrActivityNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case err != nil:
		log.Errorf("delete activity: %s", err)
		http.Error(w, "delete activity failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.week")
	defer span.End()

	summary, err := h.service.WeeklyMinutes(ctx, h.userID, mux.Vars(r)["week"])
	switch {
	case errors.Is(err, weeks.ErrInvalidWeekID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		log.Errorf("weekly activities: %s", err)
		http.Error(w, "weekly activities failed", http.StatusInternalServerError)
	default:
		pkg.WriteJSON(w, summary, http.StatusOK)
	}
}
