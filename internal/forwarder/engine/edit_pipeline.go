package engine

import (
	"log/slog"
	"regexp"
	"strings"

	domainerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

var (
	hashtagPattern    = regexp.MustCompile(`#\w+`)
	mentionPattern    = regexp.MustCompile(`@\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// EditPipeline применяет правила редактирования к тексту сообщения.
// Невалидное регулярное выражение пропускается и не мешает остальным
// правилам; шапка и подвал добавляются последними и не затрагиваются
// предыдущими шагами.
type EditPipeline struct {
	logger *slog.Logger
}

func NewEditPipeline(logger *slog.Logger) *EditPipeline {
	return &EditPipeline{logger: logger}
}

func (p *EditPipeline) Apply(text string, cfg *models.EditConfig) string {
	result := text

	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if !rule.Enabled {
			continue
		}

		result = p.applyRule(result, rule)
	}

	if cfg.RemoveURLs {
		result = urlPattern.ReplaceAllString(result, "")
	}

	if cfg.RemoveHashtags {
		result = hashtagPattern.ReplaceAllString(result, "")
	}

	if cfg.RemoveMentions {
		result = mentionPattern.ReplaceAllString(result, "")
	}

	for _, replacement := range cfg.TextReplacements {
		result = strings.ReplaceAll(result, replacement.Find, replacement.Replace)
	}

	result = strings.TrimSpace(whitespacePattern.ReplaceAllString(result, " "))

	if cfg.HeaderText != "" {
		result = cfg.HeaderText + "\n\n" + result
	}

	if cfg.FooterText != "" {
		result = result + "\n\n" + cfg.FooterText
	}

	return result
}

func (p *EditPipeline) applyRule(text string, rule *models.RegexRule) string {
	pattern := rule.Pattern
	if !rule.CaseSensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		p.logger.Warn("Невалидное регулярное выражение в правиле, пропускаем",
			"rule", rule.Name,
			"error", &domainerrors.ErrInvalidPattern{Pattern: rule.Pattern, Cause: err},
		)

		return text
	}

	switch rule.Type {
	case models.RuleFindReplace:
		return re.ReplaceAllString(text, rule.Replacement)
	case models.RuleRemove:
		return re.ReplaceAllString(text, "")
	case models.RuleExtract:
		matches := re.FindAllString(text, -1)
		if len(matches) == 0 {
			return text
		}

		return strings.Join(matches, " ")
	case models.RuleConditionalReplace:
		if !re.MatchString(text) {
			return text
		}

		return re.ReplaceAllString(text, rule.Replacement)
	default:
		p.logger.Warn("Неизвестный тип правила редактирования, пропускаем",
			"rule", rule.Name,
			"type", string(rule.Type),
		)

		return text
	}
}
