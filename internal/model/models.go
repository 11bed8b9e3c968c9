package model

import (
	"time"

	"github.com/google/uuid"
)

// Workout представляет тренировку (таблица workouts), родитель упражнений тренировки
type Workout struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Public      bool      `db:"public" json:"public"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Exercise представляет упражнение из каталога (таблица exercises)
// Muscles: список мышц, хранится в колонке text[]
type Exercise struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Muscles     []string  `db:"muscles" json:"muscles"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// WorkoutExercise упражнение в составе тренировки (таблица workout_exercises)
// Order == nil означает «без позиции», такие записи идут в конце списка
type WorkoutExercise struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WorkoutID  uuid.UUID `db:"workout_id" json:"workoutId"`
	ExerciseID uuid.UUID `db:"exercise_id" json:"exerciseId"`
	Order      *int      `db:"order" json:"order"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	Seq        int64     `db:"seq" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Set подход в упражнении тренировки (таблица sets)
type Set struct {
	ID                uuid.UUID `db:"id" json:"id"`
	WorkoutExerciseID uuid.UUID `db:"workout_exercise_id" json:"workoutExerciseId"`
	Reps              int       `db:"reps" json:"reps"`
	Weight            float64   `db:"weight" json:"weight"`
	Drops             int       `db:"drops" json:"drops"`
	Order             *int      `db:"order" json:"order"`
	Seq               int64     `db:"seq" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

// OrderUpdate представляет новое значение order дочерней записи
// ID: идентификатор записи, Order: новая позиция
type OrderUpdate struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Order int       `db:"order" json:"order"`
}

// GetOrder возвращает позицию упражнения, используется при сортировке
func (we WorkoutExercise) GetOrder() *int { return we.Order }

// GetOrder возвращает позицию подхода
func (s Set) GetOrder() *int { return s.Order }
