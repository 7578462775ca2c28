package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type MappingRepository struct {
	db *database.PostgresDB
}

func NewMappingRepository(db *database.PostgresDB) *MappingRepository {
	return &MappingRepository{db: db}
}

const mappingConfigQuery = `
	SELECT m.id, m.session_id, m.source_chat_id, m.destination_chat_id,
		m.sync_enabled, m.active, m.priority, m.created_at, m.updated_at,
		COALESCE(f.allowed_message_types, '{}'), COALESCE(f.include_keywords, '{}'),
		COALESCE(f.exclude_keywords, '{}'), COALESCE(f.keyword_match_mode, 'any'),
		COALESCE(f.case_sensitive, FALSE), COALESCE(f.min_message_length, 0),
		COALESCE(f.max_message_length, 0), COALESCE(f.block_urls, FALSE),
		COALESCE(f.block_forwards, FALSE), COALESCE(f.allowed_senders, '{}'),
		COALESCE(f.blocked_senders, '{}'), COALESCE(f.time_window_start, ''),
		COALESCE(f.time_window_end, ''),
		COALESCE(e.remove_urls, FALSE), COALESCE(e.remove_hashtags, FALSE),
		COALESCE(e.remove_mentions, FALSE), COALESCE(e.header_text, ''), COALESCE(e.footer_text, ''),
		COALESCE(d.enable_delay, FALSE), COALESCE(d.delay_seconds, 0), COALESCE(d.require_approval, FALSE)
	FROM mappings m
	LEFT JOIN filter_configs f ON f.mapping_id = m.id
	LEFT JOIN edit_configs e ON e.mapping_id = m.id
	LEFT JOIN delay_configs d ON d.mapping_id = m.id`

func (r *MappingRepository) FindConfigsBySession(ctx context.Context, sessionID string) ([]*models.MappingConfig, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, mappingConfigQuery+" WHERE m.session_id = $1 ORDER BY m.priority DESC, m.created_at", sessionID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении конфигураций маппингов: %w", err)
	}
	defer rows.Close()

	var configs []*models.MappingConfig

	for rows.Next() {
		cfg, err := scanMappingConfig(rows)
		if err != nil {
			return nil, err
		}

		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обходе конфигураций маппингов: %w", err)
	}

	for _, cfg := range configs {
		if err := r.loadRules(ctx, querier, cfg); err != nil {
			return nil, err
		}

		if err := r.loadReplacements(ctx, querier, cfg); err != nil {
			return nil, err
		}
	}

	return configs, nil
}

func (r *MappingRepository) FindConfigByID(ctx context.Context, mappingID string) (*models.MappingConfig, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx, mappingConfigQuery+" WHERE m.id = $1", mappingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске маппинга: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("ошибка при поиске маппинга: %w", err)
		}

		return nil, &customerrors.ErrMappingNotFound{MappingID: mappingID}
	}

	cfg, err := scanMappingConfig(rows)
	if err != nil {
		return nil, err
	}

	rows.Close()

	if err := r.loadRules(ctx, querier, cfg); err != nil {
		return nil, err
	}

	if err := r.loadReplacements(ctx, querier, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func scanMappingConfig(rows pgx.Rows) (*models.MappingConfig, error) {
	cfg := &models.MappingConfig{LoadedAt: time.Now()}

	err := rows.Scan(
		&cfg.Mapping.ID, &cfg.Mapping.SessionID, &cfg.Mapping.SourceChatID, &cfg.Mapping.DestinationChatID,
		&cfg.Mapping.SyncEnabled, &cfg.Mapping.Active, &cfg.Mapping.Priority, &cfg.Mapping.CreatedAt, &cfg.Mapping.UpdatedAt,
		&cfg.Filter.AllowedMessageTypes, &cfg.Filter.IncludeKeywords,
		&cfg.Filter.ExcludeKeywords, &cfg.Filter.KeywordMatchMode,
		&cfg.Filter.CaseSensitive, &cfg.Filter.MinMessageLength,
		&cfg.Filter.MaxMessageLength, &cfg.Filter.BlockURLs,
		&cfg.Filter.BlockForwards, &cfg.Filter.AllowedSenders,
		&cfg.Filter.BlockedSenders, &cfg.Filter.TimeWindowStart,
		&cfg.Filter.TimeWindowEnd,
		&cfg.Edit.RemoveURLs, &cfg.Edit.RemoveHashtags,
		&cfg.Edit.RemoveMentions, &cfg.Edit.HeaderText, &cfg.Edit.FooterText,
		&cfg.Delay.EnableDelay, &cfg.Delay.DelaySeconds, &cfg.Delay.RequireApproval,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении конфигурации маппинга: %w", err)
	}

	return cfg, nil
}

func (r *MappingRepository) loadRules(ctx context.Context, querier txs.Querier, cfg *models.MappingConfig) error {
	rows, err := querier.Query(ctx,
		`SELECT name, pattern, replacement, rule_type, case_sensitive, enabled, order_index
		FROM regex_rules WHERE mapping_id = $1 ORDER BY order_index`, cfg.Mapping.ID)
	if err != nil {
		return fmt.Errorf("ошибка при получении правил маппинга: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule models.RegexRule

		err := rows.Scan(&rule.Name, &rule.Pattern, &rule.Replacement, &rule.Type,
			&rule.CaseSensitive, &rule.Enabled, &rule.OrderIndex)
		if err != nil {
			return fmt.Errorf("ошибка при чтении правила маппинга: %w", err)
		}

		cfg.Edit.Rules = append(cfg.Edit.Rules, rule)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("ошибка при обходе правил маппинга: %w", err)
	}

	return nil
}

func (r *MappingRepository) loadReplacements(ctx context.Context, querier txs.Querier, cfg *models.MappingConfig) error {
	rows, err := querier.Query(ctx,
		`SELECT find_text, replace_text
		FROM text_replacements WHERE mapping_id = $1 ORDER BY order_index`, cfg.Mapping.ID)
	if err != nil {
		return fmt.Errorf("ошибка при получении текстовых замен: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var repl models.TextReplacement

		if err := rows.Scan(&repl.Find, &repl.Replace); err != nil {
			return fmt.Errorf("ошибка при чтении текстовой замены: %w", err)
		}

		cfg.Edit.TextReplacements = append(cfg.Edit.TextReplacements, repl)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("ошибка при обходе текстовых замен: %w", err)
	}

	return nil
}
