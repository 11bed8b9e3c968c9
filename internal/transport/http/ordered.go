package http

import (
	"net/http"

	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
)

// AddWorkoutExercise обрабатывает POST /workouts/{id}/exercises
// Тело {exerciseId, order?, notes?}; без order запись идёт в конец списка
func (h *Handler) AddWorkoutExercise(w http.ResponseWriter, r *http.Request) {
	workoutID, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req addWorkoutExerciseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	we, err := h.srv.AddWorkoutExercise(r.Context(), workoutID, uuid.MustParse(req.ExerciseID), req.Order, req.Notes)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, we)
}

// ListWorkoutExercises обрабатывает GET /workouts/{id}/exercises
func (h *Handler) ListWorkoutExercises(w http.ResponseWriter, r *http.Request) {
	workoutID, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	list, err := h.srv.ListWorkoutExercises(r.Context(), workoutID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeItems(w, list)
}

// ReorderWorkoutExercises обрабатывает PATCH /workouts/{id}/exercises/order
// 1. Декодирует и валидирует тело {items: [{id, order}]}
// 2. Применяет все позиции одной транзакцией
// 3. Возвращает перечитанный отсортированный список {items}
func (h *Handler) ReorderWorkoutExercises(w http.ResponseWriter, r *http.Request) {
	workoutID, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if err := h.srv.ReorderWorkoutExercises(r.Context(), workoutID, req.updates()); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	list, err := h.srv.ListWorkoutExercises(r.Context(), workoutID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeItems(w, list)
}

// GetWorkoutExercise обрабатывает GET /workout-exercises/{id}
func (h *Handler) GetWorkoutExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	we, err := h.srv.GetWorkoutExercise(r.Context(), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, we)
}

// UpdateWorkoutExercise обрабатывает PATCH /workout-exercises/{id}
// order и notes заменяются целиком, null очищает значение
func (h *Handler) UpdateWorkoutExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req updateWorkoutExerciseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	we, err := h.srv.UpdateWorkoutExercise(r.Context(), id, req.Order, req.Notes)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, we)
}

// DeleteWorkoutExercise обрабатывает DELETE /workout-exercises/{id}
func (h *Handler) DeleteWorkoutExercise(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.srv.DeleteWorkoutExercise)
}

// AddSet обрабатывает POST /workout-exercises/{id}/sets
func (h *Handler) AddSet(w http.ResponseWriter, r *http.Request) {
	weID, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req setRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	set, err := h.srv.AddSet(r.Context(), weID, req.Reps, req.Weight, req.Drops, req.Order)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

// ListSets обрабатывает GET /workout-exercises/{id}/sets
func (h *Handler) ListSets(w http.ResponseWriter, r *http.Request) {
	weID, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	list, err := h.srv.ListSets(r.Context(), weID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeItems(w, list)
}

// ReorderSets обрабатывает PATCH /workout-exercises/{id}/sets/order
func (h *Handler) ReorderSets(w http.ResponseWriter, r *http.Request) {
	weID, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	if err := h.srv.ReorderSets(r.Context(), weID, req.updates()); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	list, err := h.srv.ListSets(r.Context(), weID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeItems(w, list)
}

// UpdateSet обрабатывает PATCH /sets/{id}
func (h *Handler) UpdateSet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	var req setRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	set, err := h.srv.UpdateSet(r.Context(), id, req.Reps, req.Weight, req.Drops, req.Order)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// DeleteSet обрабатывает DELETE /sets/{id}
func (h *Handler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.srv.DeleteSet)
}

// writeItems отдаёт упорядоченный список как {items: [...]}, пустой список: как []
func writeItems[T model.WorkoutExercise | model.Set](w http.ResponseWriter, list []T) {
	if list == nil {
		list = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": list})
}
