package streaks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/weeks"
	"github.com/2beens/gymstreak/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=streaks_test

type streaksService interface {
	Snapshot(ctx context.Context, userID string, now time.Time) (*Snapshot, error)
	Finalize(ctx context.Context, userID string, now time.Time) (*FinalizeResult, error)
	PendingRescue(ctx context.Context, userID string, now time.Time) (*RescueRequest, error)
	ConfirmRescue(ctx context.Context, userID, weekID string, track Track, now time.Time) (*FinalizeResult, error)
	DeclineRescue(ctx context.Context, userID, weekID string, track Track, now time.Time) (*FinalizeResult, error)
	ApplyCarryover(ctx context.Context, userID string, target CarryoverTarget, track CarryoverTrack, now time.Time) (*WeekSummary, error)
}

type Handler struct {
	service  streaksService
	userID   string
	now      func() time.Time
	validate *validator.Validate
}

func NewHandler(service streaksService, userID string, now func() time.Time) *Handler {
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

type CarryoverRequest struct {
	Target string `json:"target" validate:"required,oneof=current next"`
	Track  string `json:"track" validate:"required,oneof=weights abs"`
}

type rescueResponse struct {
	PendingRescue *RescueRequest `json:"pendingRescue"`
}

// SetupRoutes registers the streak routes. Mutating routes are rate limited only if a limiter is given.
func (h *Handler) SetupRoutes(mainRouter *mux.Router, rateLimit mux.MiddlewareFunc) {
	mainRouter.HandleFunc("/streaks", h.HandleSnapshot).Methods("GET", "OPTIONS").Name("streaks")
	mainRouter.HandleFunc("/streaks/rescue", h.HandlePendingRescue).Methods("GET", "OPTIONS").Name("streaks-rescue")

	mutating := mainRouter.PathPrefix("/streaks").Subrouter()
	mutating.HandleFunc("/finalize", h.HandleFinalize).Methods("POST", "OPTIONS").Name("streaks-finalize")
	mutating.HandleFunc("/rescue/{week}/{track}/confirm", h.HandleConfirmRescue).Methods("POST", "OPTIONS").Name("streaks-rescue-confirm")
	mutating.HandleFunc("/rescue/{week}/{track}/decline", h.HandleDeclineRescue).Methods("POST", "OPTIONS").Name("streaks-rescue-decline")
	mutating.HandleFunc("/carryover", h.HandleApplyCarryover).Methods("POST", "OPTIONS").Name("streaks-carryover")
	if rateLimit != nil {
		mutating.Use(rateLimit)
	}
}

func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.snapshot")
	defer span.End()

	snapshot, err := h.service.Snapshot(ctx, h.userID, h.now())
	if err != nil {
		writeServiceError(w, "get streaks snapshot", err)
		return
	}
	pkg.WriteJSON(w, snapshot, http.StatusOK)
}

func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.finalize")
	defer span.End()

	result, err := h.service.Finalize(ctx, h.userID, h.now())
	if err != nil {
		writeServiceError(w, "finalize weeks", err)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) HandlePendingRescue(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.rescue.pending")
	defer span.End()

	req, err := h.service.PendingRescue(ctx, h.userID, h.now())
	if err != nil {
		writeServiceError(w, "get pending rescue", err)
		return
	}
	pkg.WriteJSON(w, rescueResponse{PendingRescue: req}, http.StatusOK)
}

func (h *Handler) HandleConfirmRescue(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.rescue.confirm")
	defer span.End()

	weekID, track, ok := rescueVars(w, r)
	if !ok {
		return
	}

	result, err := h.service.ConfirmRescue(ctx, h.userID, weekID, track, h.now())
	if err != nil {
		writeServiceError(w, "confirm rescue", err)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) HandleDeclineRescue(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.rescue.decline")
	defer span.End()

	weekID, track, ok := rescueVars(w, r)
	if !ok {
		return
	}

	result, err := h.service.DeclineRescue(ctx, h.userID, weekID, track, h.now())
	if err != nil {
		writeServiceError(w, "decline rescue", err)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) HandleApplyCarryover(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streaks.carryover")
	defer span.End()

	var req CarryoverRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		log.Errorf("apply carryover, decode request: %s", err)
		http.Error(w, "invalid carryover request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid carryover request: "+err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.service.ApplyCarryover(ctx, h.userID, CarryoverTarget(req.Target), CarryoverTrack(req.Track), h.now())
	if err != nil {
		writeServiceError(w, "apply carryover", err)
		return
	}
	pkg.WriteJSON(w, summary, http.StatusOK)
}

func rescueVars(w http.ResponseWriter, r *http.Request) (weekID string, track Track, ok bool) {
	vars := mux.Vars(r)
	weekID = vars["week"]
	if !weeks.Valid(weekID) {
		http.Error(w, "invalid week id", http.StatusBadRequest)
		return "", "", false
	}
	track, err := ParseTrack(vars["track"])
	if err != nil {
		http.Error(w, "invalid track", http.StatusBadRequest)
		return "", "", false
	}
	return weekID, track, true
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrUnknownTrack),
		errors.Is(err, ErrUnknownTarget),
		errors.Is(err, ErrCarryoverTrackNotAllowed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNoPendingRescue):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrWeekFinalized),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrCarryoverAlreadyApplied):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, weeks.ErrWeekRangeTooLong):
		log.Errorf("%s: %s", op, err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}
