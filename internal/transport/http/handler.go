package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/pkg/apperror"
)

// WorkoutService задаёт интерфейс бизнес-логики для HTTP-слоя, используемый хендлером
// Методы соответствуют CRUD-операциям и перестановкам упорядоченных коллекций
type WorkoutService interface {
	CreateWorkout(ctx context.Context, name string, description *string, public bool) (*model.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*model.Workout, error)
	UpdateWorkout(ctx context.Context, id uuid.UUID, name string, description *string, public bool) (*model.Workout, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID) error
	ListWorkouts(ctx context.Context, skip, take int, publicOnly bool) ([]model.Workout, int, error)

	CreateExercise(ctx context.Context, name string, description *string, muscles []string) (*model.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*model.Exercise, error)
	UpdateExercise(ctx context.Context, id uuid.UUID, name string, description *string, muscles []string) (*model.Exercise, error)
	DeleteExercise(ctx context.Context, id uuid.UUID) error
	ListExercises(ctx context.Context, skip, take int) ([]model.Exercise, int, error)

	AddWorkoutExercise(ctx context.Context, workoutID, exerciseID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error)
	GetWorkoutExercise(ctx context.Context, id uuid.UUID) (*model.WorkoutExercise, error)
	UpdateWorkoutExercise(ctx context.Context, id uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error)
	DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) error
	ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error)
	ReorderWorkoutExercises(ctx context.Context, workoutID uuid.UUID, items []model.OrderUpdate) error

	AddSet(ctx context.Context, workoutExerciseID uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error)
	UpdateSet(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error)
	DeleteSet(ctx context.Context, id uuid.UUID) error
	ListSets(ctx context.Context, workoutExerciseID uuid.UUID) ([]model.Set, error)
	ReorderSets(ctx context.Context, workoutExerciseID uuid.UUID, items []model.OrderUpdate) error
}

// ReadinessCheck проверка зависимости для /readyz (например, ping базы)
type ReadinessCheck func(ctx context.Context) error

// Handler содержит зависимости и реализует HTTP-эндпоинты
type Handler struct {
	srv    WorkoutService
	log    *zap.Logger
	checks []ReadinessCheck
}

// NewHandler создаёт новый HTTP Handler
func NewHandler(srv WorkoutService, log *zap.Logger, checks ...ReadinessCheck) *Handler {
	return &Handler{srv: srv, log: log, checks: checks}
}

// RegisterRoutes регистрирует маршруты API
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Эндпоинты для проверки здоровья и готовности сервиса
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/readyz", h.Readyz).Methods("GET")

	r.HandleFunc("/workouts", h.CreateWorkout).Methods("POST")
	r.HandleFunc("/workouts", h.ListWorkouts).Methods("GET")
	r.HandleFunc("/workouts/{id}", h.GetWorkout).Methods("GET")
	r.HandleFunc("/workouts/{id}", h.UpdateWorkout).Methods("PATCH")
	r.HandleFunc("/workouts/{id}", h.DeleteWorkout).Methods("DELETE")

	r.HandleFunc("/exercises", h.CreateExercise).Methods("POST")
	r.HandleFunc("/exercises", h.ListExercises).Methods("GET")
	r.HandleFunc("/exercises/{id}", h.GetExercise).Methods("GET")
	r.HandleFunc("/exercises/{id}", h.UpdateExercise).Methods("PATCH")
	r.HandleFunc("/exercises/{id}", h.DeleteExercise).Methods("DELETE")

	r.HandleFunc("/workouts/{id}/exercises", h.AddWorkoutExercise).Methods("POST")
	r.HandleFunc("/workouts/{id}/exercises", h.ListWorkoutExercises).Methods("GET")
	r.HandleFunc("/workouts/{id}/exercises/order", h.ReorderWorkoutExercises).Methods("PATCH")
	r.HandleFunc("/workout-exercises/{id}", h.GetWorkoutExercise).Methods("GET")
	r.HandleFunc("/workout-exercises/{id}", h.UpdateWorkoutExercise).Methods("PATCH")
	r.HandleFunc("/workout-exercises/{id}", h.DeleteWorkoutExercise).Methods("DELETE")

	r.HandleFunc("/workout-exercises/{id}/sets", h.AddSet).Methods("POST")
	r.HandleFunc("/workout-exercises/{id}/sets", h.ListSets).Methods("GET")
	r.HandleFunc("/workout-exercises/{id}/sets/order", h.ReorderSets).Methods("PATCH")
	r.HandleFunc("/sets/{id}", h.UpdateSet).Methods("PATCH")
	r.HandleFunc("/sets/{id}", h.DeleteSet).Methods("DELETE")
}

// ErrorResponse модель ошибки API
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

// Коды ошибок в теле ответа
const (
	codeInternal   = 1
	codeValidation = 2
	codeNotFound   = 3
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}

// writeAppError переводит категорию ошибки в HTTP-статус:
// validation -> 400, not_found -> 404, остальное -> 500
// Для 400 и 404 текст ошибки кладётся в details.reason
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		writeError(w, http.StatusBadRequest, ErrorResponse{codeValidation, "errors.common.validation", withReason(err)})
	case apperror.KindNotFound:
		writeError(w, http.StatusNotFound, ErrorResponse{codeNotFound, "errors.common.notFound", withReason(err)})
	default:
		h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorResponse{codeInternal, err.Error(), map[string]interface{}{}})
	}
}

func withReason(err error) map[string]interface{} {
	details := make(map[string]interface{})
	for k, v := range apperror.DetailsOf(err) {
		details[k] = v
	}
	var e *apperror.Error
	if errors.As(err, &e) {
		details["reason"] = e.Message
	}
	return details
}

// pathID извлекает uuid из переменной маршрута {id}
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id").WithDetail("id", raw)
	}
	return id, nil
}

// Healthz возвращает статус работы сервиса
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Readyz возвращает готовность сервиса: все проверки зависимостей должны пройти
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.log.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
