package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"WorkoutTracker/internal/model"
	"WorkoutTracker/internal/ordering"
	"WorkoutTracker/pkg/apperror"
)

const workoutExerciseColumns = `id, workout_id, exercise_id, "order", notes, seq, created_at`

const setColumns = `id, workout_exercise_id, reps, weight, drops, "order", seq, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkoutExercise(row rowScanner) (model.WorkoutExercise, error) {
	var we model.WorkoutExercise
	err := row.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.Order, &we.Notes, &we.Seq, &we.CreatedAt)
	return we, err
}

func scanSet(row rowScanner) (model.Set, error) {
	var s model.Set
	err := row.Scan(&s.ID, &s.WorkoutExerciseID, &s.Reps, &s.Weight, &s.Drops, &s.Order, &s.Seq, &s.CreatedAt)
	return s, err
}

// AddWorkoutExercise добавляет упражнение каталога в тренировку
// order == nil ставит запись в конец списка
func (r *WorkoutRepository) AddWorkoutExercise(ctx context.Context, workoutID, exerciseID uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Persistence("begin transaction", err)
	}
	defer tx.Rollback()
	// тренировка и упражнение должны существовать
	if err := lockParent(ctx, tx, ordering.WorkoutExercises, workoutID); err != nil {
		return nil, err
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM exercises WHERE id=$1)`, exerciseID).Scan(&exists); err != nil {
		return nil, apperror.Persistence("check exercise", err)
	}
	if !exists {
		return nil, apperror.NotFound("exercise not found").WithDetail("exerciseId", exerciseID.String())
	}
	we := model.WorkoutExercise{ID: uuid.New(), WorkoutID: workoutID, ExerciseID: exerciseID, Order: order, Notes: notes}
	query := `INSERT INTO workout_exercises(id, workout_id, exercise_id, "order", notes) VALUES($1, $2, $3, $4, $5)
		RETURNING seq, created_at`
	if err := tx.QueryRowContext(ctx, query, we.ID, workoutID, exerciseID, order, notes).Scan(&we.Seq, &we.CreatedAt); err != nil {
		return nil, apperror.Persistence("insert workout exercise", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.Persistence("commit transaction", err)
	}
	return &we, nil
}

// GetWorkoutExercise возвращает упражнение тренировки по id
func (r *WorkoutRepository) GetWorkoutExercise(ctx context.Context, id uuid.UUID) (*model.WorkoutExercise, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workoutExerciseColumns+` FROM workout_exercises WHERE id=$1`, id)
	we, err := scanWorkoutExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("get workout exercise", err)
	}
	return &we, nil
}

// UpdateWorkoutExercise обновляет позицию и заметки упражнения тренировки
func (r *WorkoutRepository) UpdateWorkoutExercise(ctx context.Context, id uuid.UUID, order *int, notes *string) (*model.WorkoutExercise, error) {
	query := `UPDATE workout_exercises SET "order"=$1, notes=$2 WHERE id=$3 RETURNING ` + workoutExerciseColumns
	we, err := scanWorkoutExercise(r.db.QueryRowContext(ctx, query, order, notes, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("update workout exercise", err)
	}
	return &we, nil
}

// DeleteWorkoutExercise удаляет упражнение тренировки вместе с подходами
// Возвращает идентификатор тренировки-родителя
func (r *WorkoutRepository) DeleteWorkoutExercise(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var workoutID uuid.UUID
	err := r.db.QueryRowContext(ctx, `DELETE FROM workout_exercises WHERE id=$1 RETURNING workout_id`, id).Scan(&workoutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, apperror.Persistence("delete workout exercise", err)
	}
	return workoutID, nil
}

// ListWorkoutExercises возвращает упражнения тренировки в порядке вставки
// Сортировку по order выполняет вызывающий (ordering.Sort)
func (r *WorkoutRepository) ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]model.WorkoutExercise, error) {
	if err := r.checkParent(ctx, ordering.WorkoutExercises, workoutID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+workoutExerciseColumns+` FROM workout_exercises WHERE workout_id=$1 ORDER BY seq`, workoutID)
	if err != nil {
		return nil, apperror.Persistence("select workout exercises", err)
	}
	defer rows.Close()
	items := []model.WorkoutExercise{}
	for rows.Next() {
		we, err := scanWorkoutExercise(rows)
		if err != nil {
			return nil, apperror.Persistence("scan workout exercise", err)
		}
		items = append(items, we)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("iterate workout exercises", err)
	}
	return items, nil
}

// AddSet добавляет подход к упражнению тренировки
func (r *WorkoutRepository) AddSet(ctx context.Context, workoutExerciseID uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Persistence("begin transaction", err)
	}
	defer tx.Rollback()
	if err := lockParent(ctx, tx, ordering.Sets, workoutExerciseID); err != nil {
		return nil, err
	}
	s := model.Set{ID: uuid.New(), WorkoutExerciseID: workoutExerciseID, Reps: reps, Weight: weight, Drops: drops, Order: order}
	query := `INSERT INTO sets(id, workout_exercise_id, reps, weight, drops, "order") VALUES($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at`
	if err := tx.QueryRowContext(ctx, query, s.ID, workoutExerciseID, reps, weight, drops, order).Scan(&s.Seq, &s.CreatedAt); err != nil {
		return nil, apperror.Persistence("insert set", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperror.Persistence("commit transaction", err)
	}
	return &s, nil
}

// UpdateSet обновляет повторения, вес, дропы и позицию подхода
func (r *WorkoutRepository) UpdateSet(ctx context.Context, id uuid.UUID, reps int, weight float64, drops int, order *int) (*model.Set, error) {
	query := `UPDATE sets SET reps=$1, weight=$2, drops=$3, "order"=$4 WHERE id=$5 RETURNING ` + setColumns
	s, err := scanSet(r.db.QueryRowContext(ctx, query, reps, weight, drops, order, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Persistence("update set", err)
	}
	return &s, nil
}

// DeleteSet удаляет подход и возвращает идентификатор упражнения тренировки-родителя
func (r *WorkoutRepository) DeleteSet(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var parentID uuid.UUID
	err := r.db.QueryRowContext(ctx, `DELETE FROM sets WHERE id=$1 RETURNING workout_exercise_id`, id).Scan(&parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, apperror.Persistence("delete set", err)
	}
	return parentID, nil
}

// ListSets возвращает подходы упражнения тренировки в порядке вставки
func (r *WorkoutRepository) ListSets(ctx context.Context, workoutExerciseID uuid.UUID) ([]model.Set, error) {
	if err := r.checkParent(ctx, ordering.Sets, workoutExerciseID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+setColumns+` FROM sets WHERE workout_exercise_id=$1 ORDER BY seq`, workoutExerciseID)
	if err != nil {
		return nil, apperror.Persistence("select sets", err)
	}
	defer rows.Close()
	items := []model.Set{}
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, apperror.Persistence("scan set", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("iterate sets", err)
	}
	return items, nil
}

// Reorder применяет пакет новых позиций к дочерним записям родителя одной транзакцией:
// 1. Блокирует строку родителя, конкурентные перестановки одного родителя выполняются по очереди
// 2. Проверяет, что все id принадлежат родителю, иначе ErrNotFound без записи
// 3. Одним UPDATE проставляет новые значения order
// Записи, не упомянутые в запросе, не изменяются
func (r *WorkoutRepository) Reorder(ctx context.Context, c ordering.Collection, parentID uuid.UUID, items []model.OrderUpdate) error {
	ids := make([]string, len(items))
	orders := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID.String()
		orders[i] = int64(it.Order)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Persistence("begin transaction", err)
	}
	defer tx.Rollback()
	if err := lockParent(ctx, tx, c, parentID); err != nil {
		return err
	}
	// выбираем дочерние записи родителя среди переданных id
	selectQuery := fmt.Sprintf(`SELECT id FROM %s WHERE %s=$1 AND id = ANY($2::uuid[]) FOR UPDATE`, c.Table, c.ParentColumn)
	rows, err := tx.QueryContext(ctx, selectQuery, parentID, pq.Array(ids))
	if err != nil {
		return apperror.Persistence("select "+c.Name+" for reorder", err)
	}
	found, err := scanIDs(rows)
	if err != nil {
		return err
	}
	if missing := missingIDs(items, found); len(missing) > 0 {
		return apperror.NotFound(c.Name+" not found in parent").
			WithDetail("parentId", parentID.String()).
			WithDetail("missing", missing)
	}
	updateQuery := fmt.Sprintf(`UPDATE %s AS t SET "order" = v.ord
		FROM unnest($1::uuid[], $2::int[]) AS v(id, ord)
		WHERE t.id = v.id AND t.%s = $3`, c.Table, c.ParentColumn)
	if _, err := tx.ExecContext(ctx, updateQuery, pq.Array(ids), pq.Array(orders), parentID); err != nil {
		return apperror.Persistence("update "+c.Name+" order", err)
	}
	if err := tx.Commit(); err != nil {
		return apperror.Persistence("commit transaction", err)
	}
	return nil
}

// lockParent блокирует строку родителя внутри транзакции, ErrNotFound если родителя нет
func lockParent(ctx context.Context, tx *sql.Tx, c ordering.Collection, parentID uuid.UUID) error {
	var id uuid.UUID
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id=$1 FOR UPDATE`, c.ParentTable)
	if err := tx.QueryRowContext(ctx, query, parentID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("parent not found").WithDetail("parentId", parentID.String())
		}
		return apperror.Persistence("lock parent", err)
	}
	return nil
}

// checkParent проверяет существование родителя без блокировки
func (r *WorkoutRepository) checkParent(ctx context.Context, c ordering.Collection, parentID uuid.UUID) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id=$1)`, c.ParentTable)
	if err := r.db.QueryRowContext(ctx, query, parentID).Scan(&exists); err != nil {
		return apperror.Persistence("check parent", err)
	}
	if !exists {
		return apperror.NotFound("parent not found").WithDetail("parentId", parentID.String())
	}
	return nil
}

// missingIDs возвращает id из запроса, которых нет среди найденных
func missingIDs(items []model.OrderUpdate, found []uuid.UUID) []string {
	set := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		set[id] = struct{}{}
	}
	var missing []string
	for _, it := range items {
		if _, ok := set[it.ID]; !ok {
			missing = append(missing, it.ID.String())
		}
	}
	return missing
}
