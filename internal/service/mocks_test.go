package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/internal/ordering"
	"WorkoutTracker/pkg/apperror"
	cachepkg "WorkoutTracker/pkg/cache"
)

var errNotConfigured = errors.New("mock method not configured")

// mockRepo реализует интерфейс Repo для тестирования сервиса.
// Поля-функции задают поведение отдельных методов, не заданные методы возвращают errNotConfigured
type mockRepo struct {
	createWorkoutFn func(ctx context.Context, name string, description *string, public bool) (*model.Workout, error)
	getWorkoutFn    func(ctx context.Context, id uuid.UUID) (*model.Workout, error)
	updateWorkoutFn func(ctx context.Context, id uuid.UUID, name string, description *string, public bool) (*model.Workout, error)
	deleteWorkoutFn func(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	listWorkoutsFn  func(ctx context.Context, skip, take int, publicOnly bool) ([]model.Workout, int, error)

	createExerciseFn func(ctx context.Context, name string, description *string, muscles []string) (*model.Exercise, error)
	deleteExerciseFn func(ctx context.Context, id uuid.UUID) error

	addWorkoutExerciseFn    func(ctx context.Context, workoutID, exerciseID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error)
	getWorkoutExerciseFn    func(ctx context.Context, id uuid.UUID) (*model.WorkoutExercise, error)
	updateWorkoutExerciseFn func(ctx context.Context, id uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error)
	deleteWorkoutExerciseFn func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	listWorkoutExercisesFn  func(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error)

	addSetFn    func(ctx context.Context, workoutExerciseID uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error)
	updateSetFn func(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error)
	deleteSetFn func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	listSetsFn  func(ctx context.Context, workoutExerciseID uuid.UUID) ([]model.Set, error)

	reorderFn func(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error
}

func (m *mockRepo) CreateWorkout(ctx context.Context, name string, description *string, public bool) (*model.Workout, error) {
	if m.createWorkoutFn == nil {
		return nil, errNotConfigured
	}
	return m.createWorkoutFn(ctx, name, description, public)
}
func (m *mockRepo) GetWorkout(ctx context.Context, id uuid.UUID) (*model.Workout, error) {
	if m.getWorkoutFn == nil {
		return nil, errNotConfigured
	}
	return m.getWorkoutFn(ctx, id)
}
func (m *mockRepo) UpdateWorkout(ctx context.Context, id uuid.UUID, name string, description *string, public bool) (*model.Workout, error) {
	if m.updateWorkoutFn == nil {
		return nil, errNotConfigured
	}
	return m.updateWorkoutFn(ctx, id, name, description, public)
}
func (m *mockRepo) DeleteWorkout(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	if m.deleteWorkoutFn == nil {
		return nil, errNotConfigured
	}
	return m.deleteWorkoutFn(ctx, id)
}
func (m *mockRepo) ListWorkouts(ctx context.Context, skip, take int, publicOnly bool) ([]model.Workout, int, error) {
	if m.listWorkoutsFn == nil {
		return nil, 0, errNotConfigured
	}
	return m.listWorkoutsFn(ctx, skip, take, publicOnly)
}
func (m *mockRepo) CreateExercise(ctx context.Context, name string, description *string, muscles []string) (*model.Exercise, error) {
	if m.createExerciseFn == nil {
		return nil, errNotConfigured
	}
	return m.createExerciseFn(ctx, name, description, muscles)
}
func (m *mockRepo) GetExercise(ctx context.Context, id uuid.UUID) (*model.Exercise, error) {
	return nil, errNotConfigured
}
func (m *mockRepo) UpdateExercise(ctx context.Context, id uuid.UUID, name string, description *string, muscles []string) (*model.Exercise, error) {
	return nil, errNotConfigured
}
func (m *mockRepo) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	if m.deleteExerciseFn == nil {
		return errNotConfigured
	}
	return m.deleteExerciseFn(ctx, id)
}
func (m *mockRepo) ListExercises(ctx context.Context, skip, take int) ([]model.Exercise, int, error) {
	return nil, 0, errNotConfigured
}
func (m *mockRepo) AddWorkoutExercise(ctx context.Context, workoutID, exerciseID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
	if m.addWorkoutExerciseFn == nil {
		return nil, errNotConfigured
	}
	return m.addWorkoutExerciseFn(ctx, workoutID, exerciseID, order, notes)
}
func (m *mockRepo) GetWorkoutExercise(ctx context.Context, id uuid.UUID) (*model.WorkoutExercise, error) {
	if m.getWorkoutExerciseFn == nil {
		return nil, errNotConfigured
	}
	return m.getWorkoutExerciseFn(ctx, id)
}
func (m *mockRepo) UpdateWorkoutExercise(ctx context.Context, id uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
	if m.updateWorkoutExerciseFn == nil {
		return nil, errNotConfigured
	}
	return m.updateWorkoutExerciseFn(ctx, id, order, notes)
}
func (m *mockRepo) DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.deleteWorkoutExerciseFn == nil {
		return uuid.Nil, errNotConfigured
	}
	return m.deleteWorkoutExerciseFn(ctx, id)
}
func (m *mockRepo) ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error) {
	if m.listWorkoutExercisesFn == nil {
		return nil, errNotConfigured
	}
	return m.listWorkoutExercisesFn(ctx, workoutID)
}
func (m *mockRepo) AddSet(ctx context.Context, workoutExerciseID uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
	if m.addSetFn == nil {
		return nil, errNotConfigured
	}
	return m.addSetFn(ctx, workoutExerciseID, reps, weight, drops, order)
}
func (m *mockRepo) UpdateSet(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
	if m.updateSetFn == nil {
		return nil, errNotConfigured
	}
	return m.updateSetFn(ctx, id, reps, weight, drops, order)
}
func (m *mockRepo) DeleteSet(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.deleteSetFn == nil {
		return uuid.Nil, errNotConfigured
	}
	return m.deleteSetFn(ctx, id)
}
func (m *mockRepo) ListSets(ctx context.Context, workoutExerciseID uuid.UUID) ([]model.Set, error) {
	if m.listSetsFn == nil {
		return nil, errNotConfigured
	}
	return m.listSetsFn(ctx, workoutExerciseID)
}
func (m *mockRepo) Reorder(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
	if m.reorderFn == nil {
		return errNotConfigured
	}
	return m.reorderFn(ctx, c, parentID, items)
}

// memStore хранит упражнения тренировок в памяти в порядке добавления
// и повторяет поведение Postgres-репозитория: перестановка применяется целиком или не применяется
type memStore struct {
	byWorkout map[uuid.UUID][]model.WorkoutExercise
}

func newMemStore() *memStore {
	return &memStore{byWorkout: map[uuid.UUID][]model.WorkoutExercise{}}
}

// add добавляет тренировку с упражнениями; orders задают начальные позиции, nil: без позиции
func (m *memStore) add(workoutID uuid.UUID, orders ...*int) []uuid.UUID {
	ids := make([]uuid.UUID, len(orders))
	list := m.byWorkout[workoutID]
	for i, o := range orders {
		ids[i] = uuid.New()
		list = append(list, model.WorkoutExercise{
			ID:        ids[i],
			WorkoutID: workoutID,
			Order:     o,
			Seq:       int64(len(list) + 1),
		})
	}
	m.byWorkout[workoutID] = list
	return ids
}

func (m *memStore) repo() *mockRepo {
	return &mockRepo{
		listWorkoutExercisesFn: func(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error) {
			list, ok := m.byWorkout[workoutID]
			if !ok {
				return nil, apperror.NotFound("workout not found")
			}
			return slices.Clone(list), nil
		},
		reorderFn: func(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
			list, ok := m.byWorkout[parentID]
			if !ok {
				return apperror.NotFound("workout not found")
			}
			index := make(map[uuid.UUID]int, len(list))
			for i, we := range list {
				index[we.ID] = i
			}
			for _, it := range items {
				if _, ok := index[it.ID]; !ok {
					return apperror.NotFound("workout exercise not found").WithDetail("missing", []string{it.ID.String()})
				}
			}
			for _, it := range items {
				order := it.Order
				list[index[it.ID]].Order = &order
			}
			return nil
		},
	}
}

// mockCache симулирует кэш Redis с настраиваемым поведением методов
type mockCache struct {
	set   func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	get   func(ctx context.Context, key string) ([]byte, error)
	inval func(ctx context.Context, keys ...string) error
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.set == nil {
		return nil
	}
	return m.set(ctx, key, value, ttl)
}
func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.get == nil {
		return nil, cachepkg.ErrCacheMiss
	}
	return m.get(ctx, key)
}
func (m *mockCache) Invalidate(ctx context.Context, keys ...string) error {
	if m.inval == nil {
		return nil
	}
	return m.inval(ctx, keys...)
}

// mockLogger накапливает опубликованные сообщения
type mockLogger struct {
	messages [][]byte
	err      error
}

func (m *mockLogger) PublishLog(data []byte) error {
	m.messages = append(m.messages, data)
	return m.err
}

// mockMetrics считает вызовы счётчиков
type mockMetrics struct {
	reorders  []string
	reorderOK int
	hits      int
	misses    int
}

func (m *mockMetrics) ObserveReorder(collection string, n int, err error) {
	m.reorders = append(m.reorders, collection)
	if err == nil {
		m.reorderOK++
	}
}
func (m *mockMetrics) CacheHit()  { m.hits++ }
func (m *mockMetrics) CacheMiss() { m.misses++ }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
