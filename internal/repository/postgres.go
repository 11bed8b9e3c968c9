package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/pkg/apperror"
)

// ErrNotFound возвращается при отсутствии записи
// Сравнение идёт по категории ошибки, поэтому errors.Is срабатывает и для ошибок с деталями
var ErrNotFound = apperror.NotFound("record not found")

// ErrEmptyName возвращается при попытке создания или обновления с пустым именем
var ErrEmptyName = apperror.Validation("name cannot be empty")

// foreignKeyViolation код ошибки Postgres 23503
const foreignKeyViolation pq.ErrorCode = "23503"

// WorkoutRepository реализует доступ к таблицам workouts, exercises, workout_exercises и sets
type WorkoutRepository struct {
	db *sql.DB
}

// NewWorkoutRepository создает новый репозиторий тренировок
func NewWorkoutRepository(db *sql.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// CreateWorkout добавляет новую тренировку
func (r *WorkoutRepository) CreateWorkout(ctx context.Context, name string, description *string, public bool) (*model.Workout, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	w := model.Workout{ID: uuid.New(), Name: name, Description: description, Public: public}
	query := `INSERT INTO workouts(id, name, description, public) VALUES($1, $2, $3, $4) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, w.ID, name, description, public).Scan(&w.CreatedAt); err != nil {
		return nil, apperror.Persistence("insert workout", err)
	}
	return &w, nil
}

// GetWorkout возвращает тренировку по id
func (r *WorkoutRepository) GetWorkout(ctx context.Context, id uuid.UUID) (*model.Workout, error) {
	query := `SELECT id, name, description, public, created_at FROM workouts WHERE id=$1`
	var w model.Workout
	err := r.db.QueryRowContext(ctx, query, id).Scan(&w.ID, &w.Name, &w.Description, &w.Public, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("get workout", err)
	}
	return &w, nil
}

// UpdateWorkout обновляет поля тренировки, с блокировкой и транзакцией
func (r *WorkoutRepository) UpdateWorkout(ctx context.Context, id uuid.UUID, name string, description *string, public bool) (*model.Workout, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Persistence("begin transaction", err)
	}
	defer tx.Rollback()
	// выборка с блокировкой
	selectQuery := `SELECT id, name, description, public, created_at FROM workouts WHERE id=$1 FOR UPDATE`
	var w model.Workout
	err = tx.QueryRowContext(ctx, selectQuery, id).Scan(&w.ID, &w.Name, &w.Description, &w.Public, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("select workout for update", err)
	}
	updateQuery := `UPDATE workouts SET name=$1, description=$2, public=$3 WHERE id=$4`
	if _, err := tx.ExecContext(ctx, updateQuery, name, description, public, id); err != nil {
		return nil, apperror.Persistence("update workout", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.Persistence("commit transaction", err)
	}
	w.Name = name
	w.Description = description
	w.Public = public
	return &w, nil
}

// DeleteWorkout удаляет тренировку; упражнения тренировки и их подходы удаляются каскадом
// Возвращает идентификаторы удалённых упражнений тренировки, чтобы вызывающий мог сбросить их кэш
func (r *WorkoutRepository) DeleteWorkout(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Persistence("begin transaction", err)
	}
	defer tx.Rollback()
	var existingID uuid.UUID
	if err := tx.QueryRowContext(ctx, `SELECT id FROM workouts WHERE id=$1 FOR UPDATE`, id).Scan(&existingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("select workout for delete", err)
	}
	rows, err := tx.QueryContext(ctx, `SELECT id FROM workout_exercises WHERE workout_id=$1`, id)
	if err != nil {
		return nil, apperror.Persistence("select workout exercises", err)
	}
	children, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workouts WHERE id=$1`, id); err != nil {
		return nil, apperror.Persistence("delete workout", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.Persistence("commit transaction", err)
	}
	return children, nil
}

// ListWorkouts возвращает тренировки с пагинацией skip/take и общее количество
// publicOnly ограничивает выборку публичными тренировками
func (r *WorkoutRepository) ListWorkouts(ctx context.Context, skip, take int, publicOnly bool) ([]model.Workout, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM workouts WHERE ($1 = false OR public = true)`
	if err := r.db.QueryRowContext(ctx, countQuery, publicOnly).Scan(&total); err != nil {
		return nil, 0, apperror.Persistence("count workouts", err)
	}
	listQuery := `SELECT id, name, description, public, created_at FROM workouts
		WHERE ($1 = false OR public = true) ORDER BY created_at, id LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, listQuery, publicOnly, take, skip)
	if err != nil {
		return nil, 0, apperror.Persistence("select workouts list", err)
	}
	defer rows.Close()
	workouts := []model.Workout{}
	for rows.Next() {
		var w model.Workout
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Public, &w.CreatedAt); err != nil {
			return nil, 0, apperror.Persistence("scan workout", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Persistence("iterate workouts", err)
	}
	return workouts, total, nil
}

// CreateExercise добавляет упражнение в каталог
func (r *WorkoutRepository) CreateExercise(ctx context.Context, name string, description *string, muscles []string) (*model.Exercise, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if muscles == nil {
		muscles = []string{}
	}
	e := model.Exercise{ID: uuid.New(), Name: name, Description: description, Muscles: muscles}
	query := `INSERT INTO exercises(id, name, description, muscles) VALUES($1, $2, $3, $4) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, e.ID, name, description, pq.Array(muscles)).Scan(&e.CreatedAt); err != nil {
		return nil, apperror.Persistence("insert exercise", err)
	}
	return &e, nil
}

// GetExercise возвращает упражнение по id
func (r *WorkoutRepository) GetExercise(ctx context.Context, id uuid.UUID) (*model.Exercise, error) {
	query := `SELECT id, name, description, muscles, created_at FROM exercises WHERE id=$1`
	var e model.Exercise
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Name, &e.Description, pq.Array(&e.Muscles), &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("get exercise", err)
	}
	return &e, nil
}

// UpdateExercise обновляет упражнение каталога
func (r *WorkoutRepository) UpdateExercise(ctx context.Context, id uuid.UUID, name string, description *string, muscles []string) (*model.Exercise, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if muscles == nil {
		muscles = []string{}
	}
	e := model.Exercise{ID: id, Name: name, Description: description, Muscles: muscles}
	query := `UPDATE exercises SET name=$1, description=$2, muscles=$3 WHERE id=$4 RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, name, description, pq.Array(muscles), id).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("update exercise", err)
	}
	return &e, nil
}

// DeleteExercise удаляет упражнение каталога
// Упражнение, добавленное хотя бы в одну тренировку, не удаляется (ON DELETE RESTRICT)
func (r *WorkoutRepository) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exercises WHERE id=$1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return apperror.Validation("exercise is used in workouts").WithDetail("exerciseId", id.String())
		}
		return apperror.Persistence("delete exercise", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Persistence("read affected rows", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExercises возвращает каталог упражнений с пагинацией skip/take
func (r *WorkoutRepository) ListExercises(ctx context.Context, skip, take int) ([]model.Exercise, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&total); err != nil {
		return nil, 0, apperror.Persistence("count exercises", err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, muscles, created_at FROM exercises ORDER BY name, id LIMIT $1 OFFSET $2`, take, skip)
	if err != nil {
		return nil, 0, apperror.Persistence("select exercises list", err)
	}
	defer rows.Close()
	exercises := []model.Exercise{}
	for rows.Next() {
		var e model.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, pq.Array(&e.Muscles), &e.CreatedAt); err != nil {
			return nil, 0, apperror.Persistence("scan exercise", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Persistence("iterate exercises", err)
	}
	return exercises, total, nil
}

// scanIDs читает колонку id из результата и закрывает rows
func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.Persistence("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("iterate ids", err)
	}
	return ids, nil
}
