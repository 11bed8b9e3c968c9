// Пакет ordering содержит правила упорядочивания дочерних записей внутри родителя:
// описание коллекций, проверку запроса на перестановку и сортировку для чтения
package ordering

import (
	"math"
	"slices"

	"github.com/google/uuid"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/pkg/apperror"
)

// Collection описывает упорядоченную коллекцию: таблицу дочерних записей и её родителя
// Значения фиксированы в коде, поэтому имена таблиц безопасно подставлять в SQL
type Collection struct {
	Name         string
	Table        string
	ParentTable  string
	ParentColumn string
}

// WorkoutExercises: упражнения внутри тренировки
var WorkoutExercises = Collection{
	Name:         model.EntityWorkoutExercise,
	Table:        "workout_exercises",
	ParentTable:  "workouts",
	ParentColumn: "workout_id",
}

// Sets: подходы внутри упражнения тренировки
var Sets = Collection{
	Name:         model.EntitySet,
	Table:        "sets",
	ParentTable:  "workout_exercises",
	ParentColumn: "workout_exercise_id",
}

// Orderable дочерняя запись с изменяемой позицией
type Orderable interface {
	GetOrder() *int
}

// ValidateRequest проверяет запрос на перестановку:
// 1. Запрос не пустой
// 2. Идентификаторы не повторяются
// 3. Значения order внутри запроса уникальны и помещаются в колонку INTEGER
// Совпадения с позициями записей, не попавших в запрос, не проверяются
func ValidateRequest(items []model.OrderUpdate) error {
	if len(items) == 0 {
		return apperror.Validation("items must not be empty")
	}
	seenIDs := make(map[uuid.UUID]struct{}, len(items))
	seenOrders := make(map[int]uuid.UUID, len(items))
	for _, it := range items {
		if it.ID == uuid.Nil {
			return apperror.Validation("item id is required")
		}
		if _, ok := seenIDs[it.ID]; ok {
			return apperror.Validation("duplicate item id").WithDetail("id", it.ID.String())
		}
		seenIDs[it.ID] = struct{}{}
		if it.Order < math.MinInt32 || it.Order > math.MaxInt32 {
			return apperror.Validation("order is out of range").WithDetail("id", it.ID.String()).WithDetail("order", it.Order)
		}
		if other, ok := seenOrders[it.Order]; ok {
			return apperror.Validation("duplicate order value").
				WithDetail("order", it.Order).
				WithDetail("ids", []string{other.String(), it.ID.String()})
		}
		seenOrders[it.Order] = it.ID
	}
	return nil
}

// IDs возвращает идентификаторы из запроса в исходном порядке
func IDs(items []model.OrderUpdate) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Sort упорядочивает записи по возрастанию order, записи без позиции идут последними
// Сортировка стабильная: равные позиции и записи без позиции сохраняют порядок вставки,
// поэтому на вход ожидается срез в порядке вставки (seq)
func Sort[T Orderable](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return compare(a.GetOrder(), b.GetOrder())
	})
}

func compare(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
