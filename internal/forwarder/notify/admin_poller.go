package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type PendingDecider interface {
	ListPendingMessages(ctx context.Context) ([]*models.PendingMessage, error)
	ApprovePendingMessage(ctx context.Context, pendingID, decidedBy, comment string) error
	RejectPendingMessage(ctx context.Context, pendingID, decidedBy, comment string) error
}

type PoolInspector interface {
	SystemStats() *models.SystemStats
}

// AdminPoller принимает команды операторов в Telegram: просмотр очереди
// ожидающих сообщений, решения по ним и статистику системы. Команды
// принимаются только из admin-чатов.
type AdminPoller struct {
	bot          *tgbotapi.BotAPI
	decider      PendingDecider
	inspector    PoolInspector
	adminChatIDs map[int64]struct{}
	logger       *slog.Logger
	stopChan     chan struct{}
}

func NewAdminPoller(bot *tgbotapi.BotAPI, decider PendingDecider, inspector PoolInspector, adminChatIDs []int64, logger *slog.Logger) *AdminPoller {
	admins := make(map[int64]struct{}, len(adminChatIDs))
	for _, id := range adminChatIDs {
		admins[id] = struct{}{}
	}

	return &AdminPoller{
		bot:          bot,
		decider:      decider,
		inspector:    inspector,
		adminChatIDs: admins,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

func (p *AdminPoller) Start(ctx context.Context) {
	p.logger.Info("Запуск Telegram поллера операторских команд")

	if p.bot == nil {
		p.logger.Error("Не удалось получить доступ к API бота")
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := p.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-p.stopChan:
				p.logger.Info("Получен сигнал остановки поллера")
				return
			case update := <-updates:
				p.processUpdate(ctx, &update)
			}
		}
	}()
}

func (p *AdminPoller) Stop() {
	p.logger.Info("Остановка Telegram поллера")
	close(p.stopChan)
}

func (p *AdminPoller) processUpdate(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID

	if _, ok := p.adminChatIDs[chatID]; !ok {
		p.logger.Warn("Команда из неизвестного чата отклонена",
			"chatID", chatID,
		)

		return
	}

	username := ""
	if update.Message.From != nil {
		username = update.Message.From.UserName
	}

	response := p.handleCommand(ctx, update.Message.Command(), update.Message.CommandArguments(), username)

	msg := tgbotapi.NewMessage(chatID, response)
	if _, err := p.bot.Send(msg); err != nil {
		p.logger.Error("Ошибка при отправке ответа оператору",
			"error", err,
			"chatID", chatID,
		)
	}
}

func (p *AdminPoller) handleCommand(ctx context.Context, command, args, username string) string {
	switch command {
	case "pending":
		return p.handlePending(ctx)
	case "approve":
		return p.handleDecision(ctx, args, username, true)
	case "reject":
		return p.handleDecision(ctx, args, username, false)
	case "stats":
		return p.handleStats()
	default:
		return "Доступные команды: /pending, /approve <id> [комментарий], /reject <id> [комментарий], /stats"
	}
}

func (p *AdminPoller) handlePending(ctx context.Context) string {
	pendings, err := p.decider.ListPendingMessages(ctx)
	if err != nil {
		p.logger.Error("Ошибка при получении очереди ожидающих сообщений",
			"error", err,
		)

		return "Не удалось получить очередь ожидающих сообщений"
	}

	if len(pendings) == 0 {
		return "Очередь ожидающих сообщений пуста"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Ожидают одобрения: %d\n\n", len(pendings))

	for _, pending := range pendings {
		fmt.Fprintf(&sb, "🆔 %s\n📍 %s\n📝 %s\n\n", pending.ID, pending.MappingID, truncate(pending.ProcessedText, 120))
	}

	return sb.String()
}

func (p *AdminPoller) handleDecision(ctx context.Context, args, username string, approve bool) string {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if parts[0] == "" {
		return "Укажите идентификатор сообщения"
	}

	pendingID := parts[0]

	comment := ""
	if len(parts) > 1 {
		comment = parts[1]
	}

	var err error
	if approve {
		err = p.decider.ApprovePendingMessage(ctx, pendingID, username, comment)
	} else {
		err = p.decider.RejectPendingMessage(ctx, pendingID, username, comment)
	}

	if err != nil {
		p.logger.Error("Ошибка при принятии решения",
			"error", err,
			"pendingID", pendingID,
		)

		return fmt.Sprintf("Решение не принято: %v", err)
	}

	if approve {
		return "Сообщение одобрено и отправлено"
	}

	return "Сообщение отклонено"
}

func (p *AdminPoller) handleStats() string {
	stats := p.inspector.SystemStats()

	return fmt.Sprintf("Воркеры: %d (онлайн %d)\nСессии: %d\nОбработано сообщений: %d\nCPU хоста: %.1f%%\nПамять хоста: %.1f%%",
		stats.TotalWorkers, stats.OnlineWorkers, stats.TotalSessions,
		stats.MessagesProcessed, stats.HostCPUPercent, stats.HostMemPercent)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "…"
}
