package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/internal/ordering"
	"WorkoutTracker/pkg/apperror"
	cachepkg "WorkoutTracker/pkg/cache"
)

func newService(repo Repo, cache *mockCache, logger *mockLogger, m *mockMetrics) *WorkoutService {
	return NewWorkoutService(repo, cache, logger, m, zap.NewNop(), time.Minute)
}

// listIDs возвращает идентификаторы упражнений тренировки в порядке чтения
func listIDs(t *testing.T, s *WorkoutService, workoutID uuid.UUID) []uuid.UUID {
	t.Helper()
	list, err := s.ListWorkoutExercises(context.Background(), workoutID)
	if err != nil {
		t.Fatalf("ListWorkoutExercises error: %v", err)
	}
	ids := make([]uuid.UUID, len(list))
	for i, we := range list {
		ids[i] = we.ID
	}
	return ids
}

func equalIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestReorderWorkoutExercises_FullPermutation: все записи без позиции получают новые позиции
func TestReorderWorkoutExercises_FullPermutation(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, nil, nil, nil)
	s := newService(store.repo(), &mockCache{}, &mockLogger{}, &mockMetrics{})

	err := s.ReorderWorkoutExercises(context.Background(), workoutID, []model.OrderUpdate{
		{ID: ids[0], Order: 3},
		{ID: ids[1], Order: 1},
		{ID: ids[2], Order: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uuid.UUID{ids[1], ids[2], ids[0]}
	if got := listIDs(t, s, workoutID); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestReorderWorkoutExercises_Partial: остальные записи сохраняют позиции, записи без позиции идут последними
func TestReorderWorkoutExercises_Partial(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, intPtr(1), intPtr(2), nil)
	s := newService(store.repo(), &mockCache{}, &mockLogger{}, &mockMetrics{})

	if err := s.ReorderWorkoutExercises(context.Background(), workoutID, []model.OrderUpdate{{ID: ids[2], Order: 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uuid.UUID{ids[2], ids[0], ids[1]}
	if got := listIDs(t, s, workoutID); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestReorderWorkoutExercises_SwapEnds: A(0), B(1), C(2) и запрос [{A,2},{C,0}] дают порядок C, B, A
func TestReorderWorkoutExercises_SwapEnds(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, intPtr(0), intPtr(1), intPtr(2))
	a, b, c := ids[0], ids[1], ids[2]
	s := newService(store.repo(), &mockCache{}, &mockLogger{}, &mockMetrics{})

	err := s.ReorderWorkoutExercises(context.Background(), workoutID, []model.OrderUpdate{{ID: a, Order: 2}, {ID: c, Order: 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uuid.UUID{c, b, a}
	if got := listIDs(t, s, workoutID); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	list := store.byWorkout[workoutID]
	if *list[0].Order != 2 || *list[1].Order != 1 || *list[2].Order != 0 {
		t.Errorf("unexpected stored orders %d %d %d", *list[0].Order, *list[1].Order, *list[2].Order)
	}
}

// TestReorderWorkoutExercises_UnknownChild: неизвестный id отклоняет весь запрос, позиции не меняются
func TestReorderWorkoutExercises_UnknownChild(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, intPtr(1), intPtr(2), intPtr(3))
	logger := &mockLogger{}
	s := newService(store.repo(), &mockCache{}, logger, &mockMetrics{})

	err := s.ReorderWorkoutExercises(context.Background(), workoutID, []model.OrderUpdate{
		{ID: ids[0], Order: 5},
		{ID: uuid.New(), Order: 1},
	})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(logger.messages) != 0 {
		t.Errorf("failed reorder must not publish events")
	}
	if got := listIDs(t, s, workoutID); !equalIDs(got, ids) {
		t.Errorf("expected unchanged order %v, got %v", ids, got)
	}
	if o := store.byWorkout[workoutID][0].Order; o == nil || *o != 1 {
		t.Errorf("first item order changed: %v", o)
	}
}

// TestReorderWorkoutExercises_UnknownParent проверяет NotFound для неизвестной тренировки
func TestReorderWorkoutExercises_UnknownParent(t *testing.T) {
	store := newMemStore()
	s := newService(store.repo(), &mockCache{}, &mockLogger{}, &mockMetrics{})
	err := s.ReorderWorkoutExercises(context.Background(), uuid.New(), []model.OrderUpdate{{ID: uuid.New(), Order: 1}})
	if !errors.Is(err, apperror.NotFound("")) {
		t.Errorf("expected not found, got %v", err)
	}
}

// TestReorderWorkoutExercises_EmptyItems: пустой запрос отклоняется до обращения к репозиторию
func TestReorderWorkoutExercises_EmptyItems(t *testing.T) {
	repo := &mockRepo{reorderFn: func(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
		t.Fatal("repository must not be called")
		return nil
	}}
	m := &mockMetrics{}
	s := newService(repo, &mockCache{}, &mockLogger{}, m)
	err := s.ReorderWorkoutExercises(context.Background(), uuid.New(), nil)
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(m.reorders) != 1 || m.reorderOK != 0 {
		t.Errorf("expected one failed reorder in metrics, got %+v", m)
	}
}

// TestReorderWorkoutExercises_Idempotent: повторный запрос даёт тот же порядок
func TestReorderWorkoutExercises_Idempotent(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, nil, intPtr(4), nil)
	s := newService(store.repo(), &mockCache{}, &mockLogger{}, &mockMetrics{})
	items := []model.OrderUpdate{{ID: ids[0], Order: 2}, {ID: ids[2], Order: 1}}

	if err := s.ReorderWorkoutExercises(context.Background(), workoutID, items); err != nil {
		t.Fatalf("first reorder: %v", err)
	}
	first := listIDs(t, s, workoutID)
	if err := s.ReorderWorkoutExercises(context.Background(), workoutID, items); err != nil {
		t.Fatalf("second reorder: %v", err)
	}
	if second := listIDs(t, s, workoutID); !equalIDs(first, second) {
		t.Errorf("expected %v, got %v", first, second)
	}
	want := []uuid.UUID{ids[2], ids[0], ids[1]}
	if !equalIDs(first, want) {
		t.Errorf("expected %v, got %v", want, first)
	}
}

// TestReorderWorkoutExercises_Publishes проверяет события по каждой записи одним сообщением
func TestReorderWorkoutExercises_Publishes(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, nil, nil)
	logger := &mockLogger{}
	m := &mockMetrics{}
	s := newService(store.repo(), &mockCache{}, logger, m)

	err := s.ReorderWorkoutExercises(context.Background(), workoutID, []model.OrderUpdate{
		{ID: ids[0], Order: 2},
		{ID: ids[1], Order: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.messages) != 1 {
		t.Fatalf("expected one published message, got %d", len(logger.messages))
	}
	var events []model.Event
	if err := json.Unmarshal(logger.messages[0], &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Action != model.ActionReorder || e.Entity != model.EntityWorkoutExercise {
			t.Errorf("event %d: unexpected %s/%s", i, e.Entity, e.Action)
		}
		if e.ParentID == nil || *e.ParentID != workoutID {
			t.Errorf("event %d: unexpected parent %v", i, e.ParentID)
		}
	}
	if *events[0].Order != 2 || *events[1].Order != 1 {
		t.Errorf("unexpected event orders")
	}
	if m.reorderOK != 1 || m.reorders[0] != model.EntityWorkoutExercise {
		t.Errorf("unexpected metrics %+v", m)
	}
}

// TestReorderSets_UsesSetsCollection проверяет, что перестановка подходов идёт по коллекции подходов
func TestReorderSets_UsesSetsCollection(t *testing.T) {
	weID := uuid.New()
	setID := uuid.New()
	var got ordering.Collection
	repo := &mockRepo{reorderFn: func(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
		got = c
		if parentID != weID || len(items) != 1 || items[0].ID != setID {
			t.Fatalf("unexpected args: %v %v", parentID, items)
		}
		return nil
	}}
	s := newService(repo, &mockCache{}, &mockLogger{}, &mockMetrics{})

	if err := s.ReorderSets(context.Background(), weID, []model.OrderUpdate{{ID: setID, Order: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ordering.Sets {
		t.Errorf("expected sets collection, got %+v", got)
	}
}

// TestReorder_PersistenceError: ошибка хранилища возвращается как есть, события не публикуются
func TestReorder_PersistenceError(t *testing.T) {
	dbErr := apperror.Persistence("update order", errors.New("connection reset"))
	repo := &mockRepo{reorderFn: func(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
		return dbErr
	}}
	logger := &mockLogger{}
	m := &mockMetrics{}
	s := newService(repo, &mockCache{}, logger, m)

	err := s.ReorderSets(context.Background(), uuid.New(), []model.OrderUpdate{{ID: uuid.New(), Order: 1}})
	if !errors.Is(err, dbErr) || apperror.KindOf(err) != apperror.KindPersistence {
		t.Errorf("expected persistence error, got %v", err)
	}
	if m.reorderOK != 0 || len(m.reorders) != 1 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if len(logger.messages) != 0 {
		t.Errorf("failed reorder must not publish events")
	}
}

// mapCache хранит значения в памяти, Invalidate может завершаться ошибкой
func mapCache(invalErr error) *mockCache {
	data := map[string][]byte{}
	return &mockCache{
		set: func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
			data[key] = value
			return nil
		},
		get: func(ctx context.Context, key string) ([]byte, error) {
			if v, ok := data[key]; ok {
				return v, nil
			}
			return nil, cachepkg.ErrCacheMiss
		},
		inval: func(ctx context.Context, keys ...string) error {
			if invalErr != nil {
				return invalErr
			}
			for _, k := range keys {
				delete(data, k)
			}
			return nil
		},
	}
}

// TestReorderWorkoutExercises_FreshListWhenCacheFails: при недоступном кэше список сразу после
// перестановки показывает новые позиции
func TestReorderWorkoutExercises_FreshListWhenCacheFails(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, intPtr(0), intPtr(1), intPtr(2))
	s := newService(store.repo(), mapCache(errors.New("redis: connection refused")), &mockLogger{}, &mockMetrics{})

	if got := listIDs(t, s, workoutID); !equalIDs(got, ids) {
		t.Fatalf("expected %v, got %v", ids, got)
	}
	err := s.ReorderWorkoutExercises(context.Background(), workoutID, []model.OrderUpdate{{ID: ids[0], Order: 2}, {ID: ids[2], Order: 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uuid.UUID{ids[2], ids[1], ids[0]}
	if got := listIDs(t, s, workoutID); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestListWorkoutExercises_ReadsRepository: список не берётся из кэша и не кладётся в него
func TestListWorkoutExercises_ReadsRepository(t *testing.T) {
	store := newMemStore()
	workoutID := uuid.New()
	ids := store.add(workoutID, nil, intPtr(2), intPtr(1), nil)
	cache := &mockCache{
		get: func(ctx context.Context, key string) ([]byte, error) {
			t.Fatalf("unexpected cache read %s", key)
			return nil, nil
		},
		set: func(ctx context.Context, key string, value []byte, exp time.Duration) error {
			t.Fatalf("unexpected cache write %s", key)
			return nil
		},
	}
	s := newService(store.repo(), cache, &mockLogger{}, &mockMetrics{})

	want := []uuid.UUID{ids[2], ids[1], ids[0], ids[3]}
	if got := listIDs(t, s, workoutID); !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestListWorkoutExercises_UnknownParent проверяет NotFound для неизвестной тренировки
func TestListWorkoutExercises_UnknownParent(t *testing.T) {
	store := newMemStore()
	s := newService(store.repo(), &mockCache{}, &mockLogger{}, &mockMetrics{})
	_, err := s.ListWorkoutExercises(context.Background(), uuid.New())
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

// TestListSets_Sorted проверяет порядок подходов: по возрастанию order, без позиции в конце
func TestListSets_Sorted(t *testing.T) {
	weID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	repo := &mockRepo{listSetsFn: func(ctx context.Context, id uuid.UUID) ([]model.Set, error) {
		return []model.Set{
			{ID: a, WorkoutExerciseID: weID},
			{ID: b, WorkoutExerciseID: weID, Order: intPtr(2)},
			{ID: c, WorkoutExerciseID: weID, Order: intPtr(2)},
		}, nil
	}}
	s := newService(repo, &mockCache{}, &mockLogger{}, &mockMetrics{})
	list, err := s.ListSets(context.Background(), weID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list[0].ID != b || list[1].ID != c || list[2].ID != a {
		t.Errorf("unexpected order: %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
}

// lastEvents разбирает последнее опубликованное сообщение
func lastEvents(t *testing.T, logger *mockLogger) []model.Event {
	t.Helper()
	if len(logger.messages) == 0 {
		t.Fatal("no events published")
	}
	var events []model.Event
	if err := json.Unmarshal(logger.messages[len(logger.messages)-1], &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	return events
}

// TestAddWorkoutExercise_PublishesEvent проверяет передачу аргументов и событие создания
func TestAddWorkoutExercise_PublishesEvent(t *testing.T) {
	workoutID, exerciseID := uuid.New(), uuid.New()
	we := &model.WorkoutExercise{ID: uuid.New(), WorkoutID: workoutID, ExerciseID: exerciseID, Notes: strPtr("warm up")}
	repo := &mockRepo{addWorkoutExerciseFn: func(ctx context.Context, wID, eID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
		if wID != workoutID || eID != exerciseID || order != nil || *notes != "warm up" {
			t.Fatalf("unexpected args")
		}
		return we, nil
	}}
	logger := &mockLogger{}
	s := newService(repo, &mockCache{}, logger, &mockMetrics{})

	got, err := s.AddWorkoutExercise(context.Background(), workoutID, exerciseID, nil, strPtr("warm up"))
	if err != nil || got != we {
		t.Fatalf("AddWorkoutExercise returned %v, %v", got, err)
	}
	events := lastEvents(t, logger)
	if len(events) != 1 || events[0].Action != model.ActionCreate || *events[0].ParentID != workoutID {
		t.Errorf("unexpected events %+v", events)
	}
}

// TestUpdateSet_PublishesWithParent: родитель события берётся из записи, которую вернул репозиторий
func TestUpdateSet_PublishesWithParent(t *testing.T) {
	weID := uuid.New()
	set := &model.Set{ID: uuid.New(), WorkoutExerciseID: weID, Reps: 8, Weight: 60, Order: intPtr(3)}
	repo := &mockRepo{updateSetFn: func(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
		return set, nil
	}}
	logger := &mockLogger{}
	s := newService(repo, &mockCache{}, logger, &mockMetrics{})

	if _, err := s.UpdateSet(context.Background(), set.ID, 8, 60, 0, intPtr(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := lastEvents(t, logger)
	if len(events) != 1 || events[0].Entity != model.EntitySet || *events[0].ParentID != weID || *events[0].Order != 3 {
		t.Errorf("unexpected events %+v", events)
	}
}

// TestDeleteWorkoutExercise_PublishesEvent: событие удаления содержит тренировку-родителя
func TestDeleteWorkoutExercise_PublishesEvent(t *testing.T) {
	workoutID, weID := uuid.New(), uuid.New()
	repo := &mockRepo{deleteWorkoutExerciseFn: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
		return workoutID, nil
	}}
	logger := &mockLogger{}
	s := newService(repo, &mockCache{}, logger, &mockMetrics{})

	if err := s.DeleteWorkoutExercise(context.Background(), weID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := lastEvents(t, logger)
	if len(events) != 1 || events[0].EntityID != weID || *events[0].ParentID != workoutID || events[0].Action != model.ActionDelete {
		t.Errorf("unexpected events %+v", events)
	}
}

// TestDeleteSet_NotFound: ошибка репозитория пробрасывается, событие не публикуется
func TestDeleteSet_NotFound(t *testing.T) {
	repo := &mockRepo{deleteSetFn: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, apperror.NotFound("set not found")
	}}
	logger := &mockLogger{}
	s := newService(repo, &mockCache{}, logger, &mockMetrics{})
	if err := s.DeleteSet(context.Background(), uuid.New()); apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
	if len(logger.messages) != 0 {
		t.Errorf("unexpected events")
	}
}
