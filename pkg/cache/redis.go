// Пакет cache предоставляет обёртку для работы с Redis как кешем
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

// ErrCacheMiss возвращается, когда запрошенный ключ отсутствует в кеше Redis.
// Используется для явного отличия ситуации кэш-промаха от других ошибок Redis.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient представляет собой обёртку над *redis.Client,
// упрощающую работу с методами Set, Get и Del и обработку ошибок.
// Чтение и запись идут через circuit breaker: при недоступном Redis
// запросы сразу возвращают ошибку, и сервис читает данные из базы.
type RedisClient struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings параметры circuit breaker для Redis
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
	OnStateChange    func(name string, from, to gobreaker.State)
}

// DefaultBreakerSettings возвращает настройки по умолчанию
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// NewRedisClient создаёт RedisClient поверх готового клиента с настройками breaker по умолчанию.
func NewRedisClient(client *redis.Client) *RedisClient {
	return NewRedisClientWithBreaker(client, DefaultBreakerSettings())
}

// NewRedisClientWithBreaker создаёт RedisClient с заданными настройками breaker.
func NewRedisClientWithBreaker(client *redis.Client, s BreakerSettings) *RedisClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: s.OnStateChange,
		// промах кэша не является отказом Redis
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	})
	return &RedisClient{client: client, breaker: cb}
}

// Set сохраняет значение value под ключом key с указанным временем жизни expiration.
// Возвращает ошибку, если операция записи завершилась неудачей или breaker открыт.
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, key, value, expiration).Err()
	})
	return err
}

// Get пытается получить значение по ключу key из кеша.
// Если ключ не найден (Redis возвращает redis.Nil), возвращается ErrCacheMiss,
// иначе при других ошибках возвращается оригинальная ошибка.
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			// кэш-промах: ключ отсутствует
			return nil, ErrCacheMiss
		}
		return data, err
	})
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

// Invalidate удаляет ключи из кеша Redis.
// Идёт в обход breaker.
func (r *RedisClient) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// State возвращает текущее состояние breaker
func (r *RedisClient) State() gobreaker.State {
	return r.breaker.State()
}
