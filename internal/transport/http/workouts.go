package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
)

type listMeta struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Take  int `json:"take"`
}

// CreateWorkout обрабатывает POST /workouts
// 1. Декодирует и валидирует тело {name, description, public}
// 2. Вызывает сервис CreateWorkout
// 3. Возвращает 201 и JSON созданной тренировки
func (h *Handler) CreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	workout, err := h.srv.CreateWorkout(r.Context(), req.Name, req.Description, req.Public)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, workout)
}

// GetWorkout обрабатывает GET /workouts/{id}
func (h *Handler) GetWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	workout, err := h.srv.GetWorkout(r.Context(), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

// UpdateWorkout обрабатывает PATCH /workouts/{id}
func (h *Handler) UpdateWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req workoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	workout, err := h.srv.UpdateWorkout(r.Context(), id, req.Name, req.Description, req.Public)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

// DeleteWorkout обрабатывает DELETE /workouts/{id}
// Возвращает JSON {id, removed: true}
func (h *Handler) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.srv.DeleteWorkout)
}

// ListWorkouts обрабатывает GET /workouts?skip=&take=&public=
// Возвращает JSON с полем meta (total, skip, take) и массив workouts
func (h *Handler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	publicOnly := r.URL.Query().Get("public") == "true"
	workouts, total, err := h.srv.ListWorkouts(r.Context(), q.Skip, q.Take, publicOnly)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if workouts == nil {
		workouts = []model.Workout{}
	}
	writeJSON(w, http.StatusOK, struct {
		Meta     listMeta        `json:"meta"`
		Workouts []model.Workout `json:"workouts"`
	}{listMeta{total, q.Skip, q.Take}, workouts})
}

// CreateExercise обрабатывает POST /exercises
func (h *Handler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	exercise, err := h.srv.CreateExercise(r.Context(), req.Name, req.Description, req.Muscles)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exercise)
}

// GetExercise обрабатывает GET /exercises/{id}
func (h *Handler) GetExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	exercise, err := h.srv.GetExercise(r.Context(), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exercise)
}

// UpdateExercise обрабатывает PATCH /exercises/{id}
func (h *Handler) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req exerciseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	exercise, err := h.srv.UpdateExercise(r.Context(), id, req.Name, req.Description, req.Muscles)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exercise)
}

// DeleteExercise обрабатывает DELETE /exercises/{id}
func (h *Handler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.srv.DeleteExercise)
}

// ListExercises обрабатывает GET /exercises?skip=&take=
func (h *Handler) ListExercises(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	exercises, total, err := h.srv.ListExercises(r.Context(), q.Skip, q.Take)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if exercises == nil {
		exercises = []model.Exercise{}
	}
	writeJSON(w, http.StatusOK, struct {
		Meta      listMeta         `json:"meta"`
		Exercises []model.Exercise `json:"exercises"`
	}{listMeta{total, q.Skip, q.Take}, exercises})
}

// remove общий обработчик DELETE по {id}
func (h *Handler) remove(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id uuid.UUID) error) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "removed": true})
}
