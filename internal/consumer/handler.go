package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"WorkoutTracker/internal/model"
)

// Repo описывает интерфейс репозитория ClickHouse для пакетной записи событий
type Repo interface {
	BatchInsertEvents(ctx context.Context, events []model.Event) error
}

// Consumer буферизует события аудита и отправляет их пакетно в ClickHouse
// batchSize определяет макс. количество событий до отправки
// mutex защищает доступ к буферу events
type Consumer struct {
	repo      Repo
	log       *zap.Logger
	batchSize int
	events    []model.Event
	mu        sync.Mutex
}

// NewConsumer создаёт Consumer с указанным репозиторием и размером пакета
func NewConsumer(repo Repo, log *zap.Logger, batchSize int) *Consumer {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Consumer{repo: repo, log: log, batchSize: batchSize, events: make([]model.Event, 0, batchSize)}
}

// HandleMessage обрабатывает сообщение из NATS: одно сообщение содержит JSON-массив событий
// (перестановка публикует событие на каждую запись). События добавляются в буфер,
// при достижении batchSize буфер отправляется в ClickHouse
func (c *Consumer) HandleMessage(ctx context.Context, data []byte) error {
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		c.log.Warn("skip malformed message", zap.Error(err), zap.Int("bytes", len(data)))
		return err
	}
	c.log.Debug("events received", zap.Int("count", len(events)))

	c.mu.Lock()
	c.events = append(c.events, events...)
	if len(c.events) < c.batchSize {
		c.mu.Unlock()
		return nil
	}
	batch := c.drain()
	c.mu.Unlock()
	return c.insert(ctx, batch)
}

// Flush отправляет все накопленные события, если они есть
func (c *Consumer) Flush(ctx context.Context) error {
	c.mu.Lock()
	if len(c.events) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.drain()
	c.mu.Unlock()
	return c.insert(ctx, batch)
}

// Run периодически сбрасывает буфер, чтобы редкие события не задерживались до заполнения пакета
// Завершается при отмене ctx
func (c *Consumer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				c.log.Error("periodic flush failed", zap.Error(err))
			}
		}
	}
}

// drain забирает копию буфера; вызывается под mu
func (c *Consumer) drain() []model.Event {
	batch := make([]model.Event, len(c.events))
	copy(batch, c.events)
	c.events = c.events[:0]
	return batch
}

func (c *Consumer) insert(ctx context.Context, batch []model.Event) error {
	if err := c.repo.BatchInsertEvents(ctx, batch); err != nil {
		c.log.Error("failed to insert events batch", zap.Error(err), zap.Int("dropped", len(batch)))
		return err
	}
	c.log.Info("events batch inserted", zap.Int("count", len(batch)))
	return nil
}
