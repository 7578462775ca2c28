package orm

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/sunil55999/TelegramForwarderX/internal/database"
	customerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/pkg/txs"
)

type MappingRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewMappingRepository(db *database.PostgresDB) *MappingRepository {
	return &MappingRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *MappingRepository) configQuery() sq.SelectBuilder {
	return r.sq.Select(
		"m.id", "m.session_id", "m.source_chat_id", "m.destination_chat_id",
		"m.sync_enabled", "m.active", "m.priority", "m.created_at", "m.updated_at",
		"COALESCE(f.allowed_message_types, '{}')", "COALESCE(f.include_keywords, '{}')",
		"COALESCE(f.exclude_keywords, '{}')", "COALESCE(f.keyword_match_mode, 'any')",
		"COALESCE(f.case_sensitive, FALSE)", "COALESCE(f.min_message_length, 0)",
		"COALESCE(f.max_message_length, 0)", "COALESCE(f.block_urls, FALSE)",
		"COALESCE(f.block_forwards, FALSE)", "COALESCE(f.allowed_senders, '{}')",
		"COALESCE(f.blocked_senders, '{}')", "COALESCE(f.time_window_start, '')",
		"COALESCE(f.time_window_end, '')",
		"COALESCE(e.remove_urls, FALSE)", "COALESCE(e.remove_hashtags, FALSE)",
		"COALESCE(e.remove_mentions, FALSE)", "COALESCE(e.header_text, '')", "COALESCE(e.footer_text, '')",
		"COALESCE(d.enable_delay, FALSE)", "COALESCE(d.delay_seconds, 0)", "COALESCE(d.require_approval, FALSE)").
		From("mappings m").
		LeftJoin("filter_configs f ON f.mapping_id = m.id").
		LeftJoin("edit_configs e ON e.mapping_id = m.id").
		LeftJoin("delay_configs d ON d.mapping_id = m.id")
}

func (r *MappingRepository) FindConfigsBySession(ctx context.Context, sessionID string) ([]*models.MappingConfig, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.configQuery().
		Where(sq.Eq{"m.session_id": sessionID}).
		OrderBy("m.priority DESC", "m.created_at").
		ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка конфигураций маппингов", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка конфигураций маппингов", Cause: err}
	}
	defer rows.Close()

	var configs []*models.MappingConfig

	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}

		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обход конфигураций маппингов", Cause: err}
	}

	for _, cfg := range configs {
		if err := r.loadExtras(ctx, querier, cfg); err != nil {
			return nil, err
		}
	}

	return configs, nil
}

func (r *MappingRepository) FindConfigByID(ctx context.Context, mappingID string) (*models.MappingConfig, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query, args, err := r.configQuery().Where(sq.Eq{"m.id": mappingID}).ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск маппинга", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "поиск маппинга", Cause: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &customerrors.ErrSQLExecution{Operation: "поиск маппинга", Cause: err}
		}

		return nil, &customerrors.ErrMappingNotFound{MappingID: mappingID}
	}

	cfg, err := scanConfig(rows)
	if err != nil {
		return nil, err
	}

	rows.Close()

	if err := r.loadExtras(ctx, querier, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func scanConfig(rows pgx.Rows) (*models.MappingConfig, error) {
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
		return nil, &customerrors.ErrSQLExecution{Operation: "чтение конфигурации маппинга", Cause: err}
	}

	return cfg, nil
}

func (r *MappingRepository) loadExtras(ctx context.Context, querier txs.Querier, cfg *models.MappingConfig) error {
	rulesQuery, rulesArgs, err := r.sq.Select("name", "pattern", "replacement", "rule_type",
		"case_sensitive", "enabled", "order_index").
		From("regex_rules").
		Where(sq.Eq{"mapping_id": cfg.Mapping.ID}).
		OrderBy("order_index").
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "выборка правил маппинга", Cause: err}
	}

	rows, err := querier.Query(ctx, rulesQuery, rulesArgs...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "выборка правил маппинга", Cause: err}
	}

	for rows.Next() {
		var rule models.RegexRule

		err := rows.Scan(&rule.Name, &rule.Pattern, &rule.Replacement, &rule.Type,
			&rule.CaseSensitive, &rule.Enabled, &rule.OrderIndex)
		if err != nil {
			rows.Close()
			return &customerrors.ErrSQLExecution{Operation: "чтение правила маппинга", Cause: err}
		}

		cfg.Edit.Rules = append(cfg.Edit.Rules, rule)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обход правил маппинга", Cause: err}
	}

	replQuery, replArgs, err := r.sq.Select("find_text", "replace_text").
		From("text_replacements").
		Where(sq.Eq{"mapping_id": cfg.Mapping.ID}).
		OrderBy("order_index").
		ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "выборка текстовых замен", Cause: err}
	}

	rows, err = querier.Query(ctx, replQuery, replArgs...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "выборка текстовых замен", Cause: err}
	}
	defer rows.Close()

	for rows.Next() {
		var repl models.TextReplacement

		if err := rows.Scan(&repl.Find, &repl.Replace); err != nil {
			return &customerrors.ErrSQLExecution{Operation: "чтение текстовой замены", Cause: err}
		}

		cfg.Edit.TextReplacements = append(cfg.Edit.TextReplacements, repl)
	}

	if err := rows.Err(); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "обход текстовых замен", Cause: err}
	}

	return nil
}
