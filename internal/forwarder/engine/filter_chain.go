package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

var urlPattern = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

type FilterResult struct {
	Passed bool
	Reason string
}

// FilterChain проверяет сообщение по конфигурации фильтров маппинга.
// Проверки выполняются в фиксированном порядке и прерываются на первом
// нарушенном правиле.
type FilterChain struct {
	now func() time.Time
}

func NewFilterChain() *FilterChain {
	return &FilterChain{now: time.Now}
}

//nolint:gocyclo,funlen // Порядок проверок фиксирован контрактом фильтрации.
func (f *FilterChain) Evaluate(msg *models.RawMessage, cfg *models.FilterConfig) FilterResult {
	if len(cfg.AllowedMessageTypes) > 0 && !contains(cfg.AllowedMessageTypes, msg.Type) {
		return rejected(fmt.Sprintf("Message type '%s' not allowed", msg.Type))
	}

	if cfg.BlockForwards && msg.Forwarded {
		return rejected("Forwarded messages blocked")
	}

	if cfg.BlockURLs && urlPattern.MatchString(msg.Text) {
		return rejected("Message contains URLs")
	}

	if cfg.MinMessageLength > 0 && len(msg.Text) < cfg.MinMessageLength {
		return rejected(fmt.Sprintf("Message too short (min: %d)", cfg.MinMessageLength))
	}

	if cfg.MaxMessageLength > 0 && len(msg.Text) > cfg.MaxMessageLength {
		return rejected(fmt.Sprintf("Message too long (max: %d)", cfg.MaxMessageLength))
	}

	searchText := msg.Text
	if !cfg.CaseSensitive {
		searchText = strings.ToLower(searchText)
	}

	if len(cfg.IncludeKeywords) > 0 {
		keywords := normalizeKeywords(cfg.IncludeKeywords, cfg.CaseSensitive)

		if cfg.KeywordMatchMode == models.MatchAll {
			var missing []string

			for _, kw := range keywords {
				if !strings.Contains(searchText, kw) {
					missing = append(missing, kw)
				}
			}

			if len(missing) > 0 {
				return rejected(fmt.Sprintf("Missing required keywords: %s", strings.Join(missing, ", ")))
			}
		} else {
			found := false

			for _, kw := range keywords {
				if strings.Contains(searchText, kw) {
					found = true
					break
				}
			}

			if !found {
				return rejected("No required keywords found")
			}
		}
	}

	if len(cfg.ExcludeKeywords) > 0 {
		keywords := normalizeKeywords(cfg.ExcludeKeywords, cfg.CaseSensitive)

		var found []string

		for _, kw := range keywords {
			if strings.Contains(searchText, kw) {
				found = append(found, kw)
			}
		}

		if len(found) > 0 {
			return rejected(fmt.Sprintf("Contains excluded keywords: %s", strings.Join(found, ", ")))
		}
	}

	if msg.SenderID != 0 {
		senderID := fmt.Sprintf("%d", msg.SenderID)

		if len(cfg.AllowedSenders) > 0 && !contains(cfg.AllowedSenders, senderID) {
			return rejected("Sender not in allowed users list")
		}

		if contains(cfg.BlockedSenders, senderID) {
			return rejected("Sender is blocked")
		}
	}

	if cfg.TimeWindowStart != "" && cfg.TimeWindowEnd != "" {
		if !f.withinTimeWindow(cfg.TimeWindowStart, cfg.TimeWindowEnd) {
			return rejected("Outside allowed time window")
		}
	}

	return FilterResult{Passed: true}
}

// withinTimeWindow поддерживает и диапазоны через полночь: окно
// 22:00-06:00 пропускает сообщения ночью.
func (f *FilterChain) withinTimeWindow(startStr, endStr string) bool {
	start, err := time.Parse("15:04", startStr)
	if err != nil {
		return true
	}

	end, err := time.Parse("15:04", endStr)
	if err != nil {
		return true
	}

	now := f.now()
	current := now.Hour()*60 + now.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	if startMin <= endMin {
		return current >= startMin && current <= endMin
	}

	return current >= startMin || current <= endMin
}

func rejected(reason string) FilterResult {
	return FilterResult{Passed: false, Reason: reason}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}

	return false
}

func normalizeKeywords(keywords []string, caseSensitive bool) []string {
	if caseSensitive {
		return keywords
	}

	normalized := make([]string, len(keywords))
	for i, kw := range keywords {
		normalized[i] = strings.ToLower(kw)
	}

	return normalized
}
