package progress

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/pkg"
)

type Handler struct {
	analyzer *Analyzer
	userID   string
}

func NewHandler(analyzer *Analyzer, userID string) *Handler {
	return &Handler{
		analyzer: analyzer,
		userID:   userID,
	}
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router) {
	r := mainRouter.PathPrefix("/progress").Subrouter()
	r.HandleFunc("/exercises/{exercise}", h.HandleExerciseHistory).Methods("GET", "OPTIONS").Name("exercise-history")
	r.HandleFunc("/volume", h.HandleWeeklyVolume).Methods("GET", "OPTIONS").Name("weekly-volume")
}

func (h *Handler) HandleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.exerciseHistory")
	defer span.End()

	history, err := h.analyzer.ExerciseHistory(ctx, h.userID, mux.Vars(r)["exercise"])
	if err != nil {
		log.Errorf("exercise history: %s", err)
		http.Error(w, "exercise history failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, history, http.StatusOK)
}

func (h *Handler) HandleWeeklyVolume(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.weeklyVolume")
	defer span.End()

	volume, err := h.analyzer.WeeklyVolume(ctx, h.userID)
	if err != nil {
		log.Errorf("weekly volume: %s", err)
		http.Error(w, "weekly volume failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, volume, http.StatusOK)
}
