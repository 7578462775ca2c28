package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

// Notifier доставляет операторам служебные оповещения о состоянии пула.
type Notifier interface {
	NotifyWorkerCrash(ctx context.Context, worker *models.Worker, migrated int) error
	NotifyMemoryPressure(ctx context.Context, snapshot models.ResourceSnapshot, pausedSessions []string) error
	NotifyPendingMessage(ctx context.Context, pending *models.PendingMessage) error
}

type TelegramNotifier struct {
	bot          *tgbotapi.BotAPI
	adminChatIDs []int64
	logger       *slog.Logger
}

func NewTelegramNotifier(token string, adminChatIDs []int64, logger *slog.Logger) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Ошибка при создании Telegram клиента", "error", err)
	}

	return &TelegramNotifier{
		bot:          bot,
		adminChatIDs: adminChatIDs,
		logger:       logger,
	}
}

// Bot отдаёт клиент API для поллера операторских команд.
func (n *TelegramNotifier) Bot() *tgbotapi.BotAPI {
	return n.bot
}

func (n *TelegramNotifier) NotifyWorkerCrash(_ context.Context, worker *models.Worker, migrated int) error {
	message := fmt.Sprintf("🚨 *Воркер упал*\n\n🆔 %s (%s)\n💓 Последний heartbeat: %s\n♻️ Перенесено сессий: %d",
		worker.Name, worker.ID,
		worker.LastHeartbeat.Format("2006-01-02 15:04:05"),
		migrated)

	return n.broadcast(message)
}

func (n *TelegramNotifier) NotifyMemoryPressure(_ context.Context, snapshot models.ResourceSnapshot, pausedSessions []string) error {
	message := fmt.Sprintf("⚠️ *Высокое потребление памяти*\n\n📊 Память: %.1f%%\n🖥 CPU: %.1f%%\n⏸ Приостановлено сессий: %d",
		snapshot.MemPercent, snapshot.CPUPercent, len(pausedSessions))

	return n.broadcast(message)
}

func (n *TelegramNotifier) NotifyPendingMessage(_ context.Context, pending *models.PendingMessage) error {
	message := fmt.Sprintf("📨 *Сообщение ждёт одобрения*\n\n🆔 %s\n📍 Маппинг: %s\n📝 Текст:\n%s",
		pending.ID, pending.MappingID, pending.ProcessedText)

	return n.broadcast(message)
}

func (n *TelegramNotifier) broadcast(message string) error {
	if n.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	for _, chatID := range n.adminChatIDs {
		msg := tgbotapi.NewMessage(chatID, message)
		msg.ParseMode = tgbotapi.ModeMarkdown

		if _, err := n.bot.Send(msg); err != nil {
			return fmt.Errorf("ошибка при отправке оповещения: %w", err)
		}
	}

	return nil
}

// NopNotifier используется, когда токен бота не настроен.
type NopNotifier struct{}

func (NopNotifier) NotifyWorkerCrash(context.Context, *models.Worker, int) error { return nil }

func (NopNotifier) NotifyMemoryPressure(context.Context, models.ResourceSnapshot, []string) error {
	return nil
}

func (NopNotifier) NotifyPendingMessage(context.Context, *models.PendingMessage) error { return nil }
