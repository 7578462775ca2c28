package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/sunil55999/TelegramForwarderX/internal/common/httputil"
	"github.com/sunil55999/TelegramForwarderX/internal/config"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

var tokenPattern = regexp.MustCompile(`/bot([^/\s]+)`)

type apiResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// TelegramTransport отправляет сообщения через Bot API, ограничивая
// темп отправки общим лимитером.
type TelegramTransport struct {
	client  *resty.Client
	limiter *rate.Limiter
	baseURL string
	logger  *slog.Logger
}

func NewTelegramTransport(cfg *config.Config, logger *slog.Logger) *TelegramTransport {
	client := httputil.NewBreakerClient(cfg, logger, "telegram")

	return &TelegramTransport{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendRatePerSecond),
		baseURL: fmt.Sprintf("%s/bot%s", cfg.TelegramAPIURL, cfg.TelegramBotToken),
		logger:  logger,
	}
}

func sanitizeError(err error) error {
	if err == nil {
		return nil
	}

	sanitized := tokenPattern.ReplaceAllString(err.Error(), "/bot[MASKED_TOKEN]")

	return fmt.Errorf("%s", sanitized)
}

func (t *TelegramTransport) Send(ctx context.Context, chatID int64, text string, media *models.MediaRef) (int64, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("ошибка при ожидании лимитера отправки: %w", err)
	}

	method := "sendMessage"
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}

	if media != nil {
		method, body = mediaRequest(chatID, text, media)
	}

	result := &apiResponse{}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(result).
		Post(t.baseURL + "/" + method)
	if err != nil {
		return 0, sanitizeError(err)
	}

	if resp.StatusCode() != http.StatusOK || !result.Ok {
		return 0, fmt.Errorf("ошибка при отправке сообщения: статус %d: %s", resp.StatusCode(), result.Description)
	}

	return result.Result.MessageID, nil
}

func (t *TelegramTransport) Edit(ctx context.Context, chatID, messageID int64, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ошибка при ожидании лимитера отправки: %w", err)
	}

	result := &apiResponse{}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id":    chatID,
			"message_id": messageID,
			"text":       text,
		}).
		SetResult(result).
		SetError(result).
		Post(t.baseURL + "/editMessageText")
	if err != nil {
		return sanitizeError(err)
	}

	if resp.StatusCode() != http.StatusOK || !result.Ok {
		return fmt.Errorf("ошибка при правке сообщения: статус %d: %s", resp.StatusCode(), result.Description)
	}

	return nil
}

func (t *TelegramTransport) Delete(ctx context.Context, chatID, messageID int64) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ошибка при ожидании лимитера отправки: %w", err)
	}

	result := &apiResponse{}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id":    chatID,
			"message_id": messageID,
		}).
		SetResult(result).
		SetError(result).
		Post(t.baseURL + "/deleteMessage")
	if err != nil {
		return sanitizeError(err)
	}

	if resp.StatusCode() != http.StatusOK || !result.Ok {
		return fmt.Errorf("ошибка при удалении сообщения: статус %d: %s", resp.StatusCode(), result.Description)
	}

	return nil
}

func mediaRequest(chatID int64, caption string, media *models.MediaRef) (string, map[string]any) {
	body := map[string]any{
		"chat_id": chatID,
		"caption": caption,
	}

	switch media.Type {
	case "photo":
		body["photo"] = media.FileID
		return "sendPhoto", body
	case "video":
		body["video"] = media.FileID
		return "sendVideo", body
	case "audio":
		body["audio"] = media.FileID
		return "sendAudio", body
	default:
		body["document"] = media.FileID
		return "sendDocument", body
	}
}
