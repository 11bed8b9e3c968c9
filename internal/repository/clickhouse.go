package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"WorkoutTracker/internal/model"
)

// ClickhouseRepo реализует пакетную запись событий аудита в ClickHouse
type ClickhouseRepo struct {
	db  *sql.DB
	log *zap.Logger
}

// NewClickhouseRepo создаёт новый репозиторий для ClickHouse
func NewClickhouseRepo(db *sql.DB, log *zap.Logger) *ClickhouseRepo {
	return &ClickhouseRepo{db: db, log: log}
}

// BatchInsertEvents записывает пакет событий в таблицу events_log
// Время события берётся из самого события, позиция без значения пишется как HasOrder=0
func (r *ClickhouseRepo) BatchInsertEvents(ctx context.Context, events []model.Event) error {
	// начинаем 'транзакцию' для batch insert (clickhouse-go собирает блок при PrepareContext)
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	r.log.Debug("batch insert started", zap.Int("events", len(events)))
	query := `INSERT INTO events_log (Entity, Action, EntityId, ParentId, HasOrder, OrderValue, EventTime) VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range events {
		parent := ""
		if e.ParentID != nil {
			parent = e.ParentID.String()
		}
		var hasOrder uint8
		var order int64
		if e.Order != nil {
			hasOrder, order = 1, int64(*e.Order)
		}
		_, err := stmt.ExecContext(ctx,
			e.Entity, e.Action, e.EntityID.String(), parent,
			hasOrder, order, e.EventTime,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.log.Info("batch inserted", zap.Int("events", len(events)))
	return nil
}
