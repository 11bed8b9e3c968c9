package service

import (
	"context"

	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
)

// CreateExercise добавляет упражнение в каталог
func (s *WorkoutService) CreateExercise(ctx context.Context, name string, description *string, muscles []string) (*model.Exercise, error) {
	e, err := s.repo.CreateExercise(ctx, name, description, muscles)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntityExercise, model.ActionCreate, e.ID, nil, nil))
	return e, nil
}

// GetExercise возвращает упражнение каталога
func (s *WorkoutService) GetExercise(ctx context.Context, id uuid.UUID) (*model.Exercise, error) {
	return s.repo.GetExercise(ctx, id)
}

// UpdateExercise обновляет упражнение каталога
func (s *WorkoutService) UpdateExercise(ctx context.Context, id uuid.UUID, name string, description *string, muscles []string) (*model.Exercise, error) {
	e, err := s.repo.UpdateExercise(ctx, id, name, description, muscles)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntityExercise, model.ActionUpdate, id, nil, nil))
	return e, nil
}

// DeleteExercise удаляет упражнение, если оно не используется в тренировках
func (s *WorkoutService) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteExercise(ctx, id); err != nil {
		return err
	}
	s.publish(newEvent(model.EntityExercise, model.ActionDelete, id, nil, nil))
	return nil
}

// ListExercises возвращает страницу каталога упражнений
func (s *WorkoutService) ListExercises(ctx context.Context, skip, take int) ([]model.Exercise, int, error) {
	return s.repo.ListExercises(ctx, skip, take)
}
