package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sunil55999/TelegramForwarderX/internal/config"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type rawMessageEnvelope struct {
	SessionID    string `json:"sessionId"`
	SourceChatID int64  `json:"sourceChatId"`
	MessageID    int64  `json:"messageId"`
	SenderID     int64  `json:"senderId"`
	Text         string `json:"text"`
	Type         string `json:"type"`
	Forwarded    bool   `json:"forwarded"`
	Event        string `json:"event"`
	Media        *struct {
		Type   string `json:"type"`
		FileID string `json:"fileId"`
	} `json:"media,omitempty"`
}

// KafkaSource читает сырые сообщения сессий из Kafka и раздаёт их по
// каналам подписчиков. Порядок внутри сессии сохраняется: все сообщения
// одной сессии попадают в один канал в порядке чтения из топика.
type KafkaSource struct {
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	logger    *slog.Logger
	rawTopic  string
	dlqTopic  string

	mu       sync.RWMutex
	channels map[string]chan *models.RawMessage
}

func NewKafkaSource(cfg *config.Config, logger *slog.Logger) *KafkaSource {
	brokers := strings.Split(cfg.KafkaBrokers, ",")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.TopicRawMessages,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 1 * time.Second,
		Logger:         kafka.LoggerFunc(logger.Debug),
		ErrorLogger:    kafka.LoggerFunc(logger.Error),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.TopicDeadLetterQueue,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &KafkaSource{
		reader:    reader,
		dlqWriter: dlqWriter,
		logger:    logger,
		rawTopic:  cfg.TopicRawMessages,
		dlqTopic:  cfg.TopicDeadLetterQueue,
		channels:  make(map[string]chan *models.RawMessage),
	}
}

// Subscribe возвращает канал сообщений сессии. Повторная подписка на ту
// же сессию возвращает существующий канал.
func (s *KafkaSource) Subscribe(sessionID string) <-chan *models.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[sessionID]; ok {
		return ch
	}

	ch := make(chan *models.RawMessage, 256)
	s.channels[sessionID] = ch

	return ch
}

// Unsubscribe убирает канал сессии из раздачи. Канал не закрывается:
// dispatch может держать ссылку на него вне мьютекса, а пайплайн
// завершается по отмене своего контекста.
func (s *KafkaSource) Unsubscribe(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.channels, sessionID)
}

func (s *KafkaSource) Start(ctx context.Context) {
	s.logger.Info("Запуск потребления сообщений из Kafka",
		"topic", s.rawTopic,
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Остановка потребления сообщений из Kafka")
				return
			default:
				msg, err := s.reader.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}

					s.logger.Error("Ошибка при чтении сообщения из Kafka",
						"error", err,
					)

					continue
				}

				if err := s.dispatch(ctx, &msg); err != nil {
					s.logger.Error("Ошибка при обработке сообщения",
						"error", err,
					)
				}
			}
		}
	}()
}

func (s *KafkaSource) dispatch(ctx context.Context, msg *kafka.Message) error {
	var envelope rawMessageEnvelope

	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		if sendErr := s.sendToDLQ(ctx, msg.Value, fmt.Sprintf("Ошибка десериализации: %s", err)); sendErr != nil {
			s.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return fmt.Errorf("ошибка при десериализации сообщения: %w", err)
	}

	if envelope.SessionID == "" {
		errMsg := "отсутствует обязательное поле sessionId"

		if sendErr := s.sendToDLQ(ctx, msg.Value, errMsg); sendErr != nil {
			s.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return fmt.Errorf("%s", errMsg)
	}

	raw := &models.RawMessage{
		SessionID:    envelope.SessionID,
		SourceChatID: envelope.SourceChatID,
		MessageID:    envelope.MessageID,
		SenderID:     envelope.SenderID,
		Text:         envelope.Text,
		Type:         envelope.Type,
		Forwarded:    envelope.Forwarded,
		Event:        models.RawEventType(envelope.Event),
		ReceivedAt:   msg.Time,
	}

	if raw.Event == "" {
		raw.Event = models.EventNewMessage
	}

	if envelope.Media != nil {
		raw.Media = &models.MediaRef{Type: envelope.Media.Type, FileID: envelope.Media.FileID}
	}

	s.mu.RLock()
	ch, ok := s.channels[envelope.SessionID]
	s.mu.RUnlock()

	if !ok {
		s.logger.Debug("Сообщение для сессии без подписчика пропущено",
			"sessionID", envelope.SessionID,
		)

		return nil
	}

	select {
	case ch <- raw:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (s *KafkaSource) sendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	s.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", s.dlqTopic,
	)

	err := s.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	return nil
}

func (s *KafkaSource) Close() error {
	if err := s.reader.Close(); err != nil {
		return err
	}

	return s.dlqWriter.Close()
}
