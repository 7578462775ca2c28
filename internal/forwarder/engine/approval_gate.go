package engine

import (
	"time"

	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
)

type GateAction int

const (
	ActionForward GateAction = iota
	ActionDelay
	ActionHold
)

type GateDecision struct {
	Action    GateAction
	SendAfter time.Time
}

// ApprovalGate решает судьбу обработанного сообщения: немедленная
// отправка, отложенная отправка или ожидание ручного одобрения.
type ApprovalGate struct {
	now func() time.Time
}

func NewApprovalGate() *ApprovalGate {
	return &ApprovalGate{now: time.Now}
}

func (g *ApprovalGate) Decide(cfg *models.DelayConfig) GateDecision {
	if !cfg.EnableDelay {
		return GateDecision{Action: ActionForward}
	}

	if cfg.RequireApproval {
		return GateDecision{Action: ActionHold}
	}

	return GateDecision{
		Action:    ActionDelay,
		SendAfter: g.now().Add(time.Duration(cfg.DelaySeconds) * time.Second),
	}
}
