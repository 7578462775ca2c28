package models

import (
	"time"
)

type Mapping struct {
	ID                string
	SessionID         string
	SourceChatID      int64
	DestinationChatID int64
	SyncEnabled       bool
	Active            bool
	Priority          int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type KeywordMatchMode string

const (
	MatchAny KeywordMatchMode = "any"
	MatchAll KeywordMatchMode = "all"
)

type FilterConfig struct {
	AllowedMessageTypes []string
	IncludeKeywords     []string
	ExcludeKeywords     []string
	KeywordMatchMode    KeywordMatchMode
	CaseSensitive       bool
	MinMessageLength    int
	MaxMessageLength    int
	BlockURLs           bool
	BlockForwards       bool
	AllowedSenders      []string
	BlockedSenders      []string
	TimeWindowStart     string
	TimeWindowEnd       string
}

type RuleType string

const (
	RuleFindReplace        RuleType = "find_replace"
	RuleRemove             RuleType = "remove"
	RuleExtract            RuleType = "extract"
	RuleConditionalReplace RuleType = "conditional_replace"
)

type RegexRule struct {
	Name          string
	Pattern       string
	Replacement   string
	Type          RuleType
	CaseSensitive bool
	Enabled       bool
	OrderIndex    int
}

type TextReplacement struct {
	Find    string
	Replace string
}

type EditConfig struct {
	Rules            []RegexRule
	RemoveURLs       bool
	RemoveHashtags   bool
	RemoveMentions   bool
	HeaderText       string
	FooterText       string
	TextReplacements []TextReplacement
}

type DelayConfig struct {
	EnableDelay     bool
	DelaySeconds    int
	RequireApproval bool
}

// MappingConfig — снимок конфигурации маппинга, который пайплайн
// кэширует и периодически обновляет.
type MappingConfig struct {
	Mapping  Mapping
	Filter   FilterConfig
	Edit     EditConfig
	Delay    DelayConfig
	LoadedAt time.Time
}
