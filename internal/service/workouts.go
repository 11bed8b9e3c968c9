package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/internal/ordering"
)

// Repo определяет интерфейс репозитория (Postgres): тренировки, каталог упражнений,
// упорядоченные коллекции упражнений тренировки и подходов
type Repo interface {
	CreateWorkout(ctx context.Context, name string, description *string, public bool) (*model.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*model.Workout, error)
	UpdateWorkout(ctx context.Context, id uuid.UUID, name string, description *string, public bool) (*model.Workout, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	ListWorkouts(ctx context.Context, skip, take int, publicOnly bool) ([]model.Workout, int, error)

	CreateExercise(ctx context.Context, name string, description *string, muscles []string) (*model.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*model.Exercise, error)
	UpdateExercise(ctx context.Context, id uuid.UUID, name string, description *string, muscles []string) (*model.Exercise, error)
	DeleteExercise(ctx context.Context, id uuid.UUID) error
	ListExercises(ctx context.Context, skip, take int) ([]model.Exercise, int, error)

	AddWorkoutExercise(ctx context.Context, workoutID, exerciseID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error)
	GetWorkoutExercise(ctx context.Context, id uuid.UUID) (*model.WorkoutExercise, error)
	UpdateWorkoutExercise(ctx context.Context, id uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error)
	DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error)

	AddSet(ctx context.Context, workoutExerciseID uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error)
	UpdateSet(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error)
	DeleteSet(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListSets(ctx context.Context, workoutExerciseID uuid.UUID) ([]model.Set, error)

	Reorder(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error
}

// Cache определяет интерфейс кэширования результатов операций (Redis)
// Методы позволяют записывать, читать и инвалидировать кэш по ключам
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// Logger определяет интерфейс публикации событий аудита (NATS)
type Logger interface {
	PublishLog(data []byte) error
}

// Metrics определяет счётчики, которые обновляет сервис
type Metrics interface {
	ObserveReorder(collection string, n int, err error)
	CacheHit()
	CacheMiss()
}

// WorkoutService реализует бизнес-логику тренировок:
// - вызовы репозитория для CRUD операций и перестановок
// - кэширование тренировок и его инвалидирование
// - публикация событий аудита
type WorkoutService struct {
	repo    Repo
	cache   Cache
	logger  Logger
	metrics Metrics
	log     *zap.Logger
	ttl     time.Duration
}

// NewWorkoutService создаёт новый сервис тренировок
// ttl задаёт время жизни записей в кэше
func NewWorkoutService(r Repo, c Cache, l Logger, m Metrics, log *zap.Logger, ttl time.Duration) *WorkoutService {
	return &WorkoutService{repo: r, cache: c, logger: l, metrics: m, log: log, ttl: ttl}
}

func workoutKey(id uuid.UUID) string {
	return fmt.Sprintf("workout:%s", id)
}

// CreateWorkout создаёт тренировку и публикует событие
func (s *WorkoutService) CreateWorkout(ctx context.Context, name string, description *string, public bool) (*model.Workout, error) {
	w, err := s.repo.CreateWorkout(ctx, name, description, public)
	if err != nil {
		return nil, err
	}
	s.publish(newEvent(model.EntityWorkout, model.ActionCreate, w.ID, nil, nil))
	return w, nil
}

// GetWorkout возвращает тренировку:
// 1. Пытается получить из кэша Redis
// 2. При промахе кэша запрашивает из репозитория
// 3. Сохраняет результат в кэш
func (s *WorkoutService) GetWorkout(ctx context.Context, id uuid.UUID) (*model.Workout, error) {
	key := workoutKey(id)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var w model.Workout
		if json.Unmarshal(data, &w) == nil {
			s.metrics.CacheHit()
			return &w, nil
		}
	}
	s.metrics.CacheMiss()
	w, err := s.repo.GetWorkout(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(w)
	if err != nil {
		s.log.Warn("failed to marshal workout for cache", zap.String("key", key), zap.Error(err))
		return w, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Debug("failed to cache workout", zap.String("key", key), zap.Error(err))
	}
	return w, nil
}

// UpdateWorkout обновляет тренировку, инвалидирует кэш и публикует событие
func (s *WorkoutService) UpdateWorkout(ctx context.Context, id uuid.UUID, name string, description *string, public bool) (*model.Workout, error) {
	w, err := s.repo.UpdateWorkout(ctx, id, name, description, public)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, workoutKey(id))
	s.publish(newEvent(model.EntityWorkout, model.ActionUpdate, id, nil, nil))
	return w, nil
}

// DeleteWorkout удаляет тренировку вместе с упражнениями и подходами:
// 1. Удаляет запись в репозитории (каскад в БД)
// 2. Инвалидирует кэш тренировки
// 3. Публикует событие удаления тренировки и каждого упражнения, удалённого каскадом
func (s *WorkoutService) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	children, err := s.repo.DeleteWorkout(ctx, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, workoutKey(id))
	events := []model.Event{newEvent(model.EntityWorkout, model.ActionDelete, id, nil, nil)}
	for _, child := range children {
		events = append(events, newEvent(model.EntityWorkoutExercise, model.ActionDelete, child, &id, nil))
	}
	s.publish(events...)
	return nil
}

// ListWorkouts возвращает страницу тренировок и общее количество
func (s *WorkoutService) ListWorkouts(ctx context.Context, skip, take int, publicOnly bool) ([]model.Workout, int, error) {
	return s.repo.ListWorkouts(ctx, skip, take, publicOnly)
}

// invalidate удаляет ключи из кэша, ошибка только логируется
func (s *WorkoutService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

// publish сериализует события в JSON-массив и отправляет одним сообщением
// Ошибка публикации не отменяет уже выполненную операцию, она только логируется
func (s *WorkoutService) publish(events ...model.Event) {
	if len(events) == 0 {
		return
	}
	data, err := json.Marshal(events)
	if err != nil {
		s.log.Error("failed to marshal events", zap.Error(err))
		return
	}
	if err := s.logger.PublishLog(data); err != nil {
		s.log.Warn("failed to publish events", zap.Error(err), zap.Int("events", len(events)))
	}
}

func newEvent(entity, action string, id uuid.UUID, parentID *uuid.UUID, order *int) model.Event {
	return model.Event{
		Entity:    entity,
		Action:    action,
		EntityID:  id,
		ParentID:  parentID,
		Order:     order,
		EventTime: time.Now().UTC(),
	}
}
