// Пакет logger предоставляет процессный логгер zap и транспорт событий аудита через NATS
package logger

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrEmptyPayload возвращается при попытке опубликовать пустое сообщение
var ErrEmptyPayload = errors.New("empty payload")

// Conn минимальный интерфейс NATS-подключения для публикации (*nats.Conn)
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSClient публикует события аудита в тему subject
type NATSClient struct {
	conn    Conn
	subject string
}

// NewClient создаёт новый NATSClient, связывая Conn и subject
func NewClient(conn Conn, subject string) *NATSClient {
	return &NATSClient{conn: conn, subject: subject}
}

// PublishLog отправляет сообщение в тему клиента
func (n *NATSClient) PublishLog(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPayload
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.subject, err)
	}
	return nil
}

// Subject возвращает тему публикации
func (n *NATSClient) Subject() string {
	return n.subject
}

// Subscriber NATS-подключение, из которого читает консьюмер (*nats.Conn)
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// MessageHandler обрабатывает тело одного сообщения
type MessageHandler func(ctx context.Context, data []byte) error

// Subscribe подписывает handle на тему subject
// Ошибки обработки логируются, сообщение при этом не переотправляется
func Subscribe(ctx context.Context, conn Subscriber, subject string, log *zap.Logger, handle MessageHandler) (*nats.Subscription, error) {
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := handle(ctx, msg.Data); err != nil {
			log.Error("failed to handle message", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	log.Info("subscribed", zap.String("subject", subject))
	return sub, nil
}
