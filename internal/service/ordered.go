package service

import (
	"context"

	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/internal/ordering"
)

// AddWorkoutExercise добавляет упражнение каталога в тренировку
func (s *WorkoutService) AddWorkoutExercise(ctx context.Context, workoutID, exerciseID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
	we, err := s.repo.AddWorkoutExercise(ctx, workoutID, exerciseID, order, notes)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntityWorkoutExercise, model.ActionCreate, we.ID, &workoutID, we.Order))
	return we, nil
}

// GetWorkoutExercise возвращает упражнение тренировки по id
func (s *WorkoutService) GetWorkoutExercise(ctx context.Context, id uuid.UUID) (*model.WorkoutExercise, error) {
	return s.repo.GetWorkoutExercise(ctx, id)
}

// UpdateWorkoutExercise меняет позицию и заметки упражнения тренировки
func (s *WorkoutService) UpdateWorkoutExercise(ctx context.Context, id uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
	we, err := s.repo.UpdateWorkoutExercise(ctx, id, order, notes)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntityWorkoutExercise, model.ActionUpdate, id, &we.WorkoutID, we.Order))
	return we, nil
}

// DeleteWorkoutExercise удаляет упражнение из тренировки вместе с его подходами
func (s *WorkoutService) DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) error {
	workoutID, err := s.repo.DeleteWorkoutExercise(ctx, id)
	if err != nil {
		return err
	}
	s.publish(newEvent(model.EntityWorkoutExercise, model.ActionDelete, id, &workoutID, nil))
	return nil
}

// ListWorkoutExercises возвращает упражнения тренировки по возрастанию order,
// записи без позиции идут последними в порядке добавления.
// Список всегда читается из репозитория, чтобы сразу отражать результат перестановки
func (s *WorkoutService) ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error) {
	list, err := s.repo.ListWorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	ordering.Sort(list)
	return list, nil
}

// ReorderWorkoutExercises задаёт новые позиции упражнениям тренировки одной транзакцией
func (s *WorkoutService) ReorderWorkoutExercises(ctx context.Context, workoutID uuid.UUID, items []model.OrderUpdate) error {
	return s.reorder(ctx, ordering.WorkoutExercises, workoutID, items)
}

// AddSet добавляет подход к упражнению тренировки
func (s *WorkoutService) AddSet(ctx context.Context, workoutExerciseID uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
	set, err := s.repo.AddSet(ctx, workoutExerciseID, reps, weight, drops, order)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntitySet, model.ActionCreate, set.ID, &workoutExerciseID, set.Order))
	return set, nil
}

// UpdateSet обновляет подход
func (s *WorkoutService) UpdateSet(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
	set, err := s.repo.UpdateSet(ctx, id, reps, weight, drops, order)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntitySet, model.ActionUpdate, id, &set.WorkoutExerciseID, set.Order))
	return set, nil
}

// DeleteSet удаляет подход
func (s *WorkoutService) DeleteSet(ctx context.Context, id uuid.UUID) error {
	parentID, err := s.repo.DeleteSet(ctx, id)
	if err != nil {
		return err
	}
	s.publish(newEvent(model.EntitySet, model.ActionDelete, id, &parentID, nil))
	return nil
}

// ListSets возвращает подходы упражнения тренировки в порядке выполнения
func (s *WorkoutService) ListSets(ctx context.Context, workoutExerciseID uuid.UUID) ([]model.Set, error) {
	list, err := s.repo.ListSets(ctx, workoutExerciseID)
	if err != nil {
		return nil, err
	}
	ordering.Sort(list)
	return list, nil
}

// ReorderSets задаёт новые позиции подходам одной транзакцией
func (s *WorkoutService) ReorderSets(ctx context.Context, workoutExerciseID uuid.UUID, items []model.OrderUpdate) error {
	return s.reorder(ctx, ordering.Sets, workoutExerciseID, items)
}

// reorder выполняет перестановку:
// 1. Проверяет запрос (пустой список, повторы id и order)
// 2. Применяет все позиции в репозитории атомарно, при ошибке ничего не меняется
// 3. Публикует по событию на каждую запись
func (s *WorkoutService) reorder(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
	if err := ordering.ValidateRequest(items); err != nil {
		s.metrics.ObserveReorder(c.Name, len(items), err)
		return err
	}
	err := s.repo.Reorder(ctx, c, parentID, items)
	s.metrics.ObserveReorder(c.Name, len(items), err)
	if err != nil {
		return err
	}
	events := make([]model.Event, len(items))
	for i, it := range items {
		order := it.Order
		events[i] = newEvent(c.Name, model.ActionReorder, it.ID, &parentID, &order)
	}
	s.publish(events...)
	return nil
}
