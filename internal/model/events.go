package model

import (
	"time"

	"github.com/google/uuid"
)

// Сущности, для которых публикуются события
const (
	EntityWorkout         = "workout"
	EntityExercise        = "exercise"
	EntityWorkoutExercise = "workout_exercise"
	EntitySet             = "set"
)

// Действия над сущностями
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionReorder = "reorder"
)

// Event событие аудита, публикуется в NATS и пишется консьюмером в ClickHouse
type Event struct {
	Entity    string     `json:"entity"`
	Action    string     `json:"action"`
	EntityID  uuid.UUID  `json:"entityId"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	Order     *int       `json:"order,omitempty"`
	EventTime time.Time  `json:"eventTime"`
}
