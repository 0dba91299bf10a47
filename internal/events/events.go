// Package events 发布领域事件（Redis Streams / MQTT），发布失败只记录日志
package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	TypeAreaSaved        = "area.saved"
	TypeAreaRemoved      = "area.removed"
	TypeAssessmentScored = "assessment.scored"
)

// Event 领域事件
type Event struct {
	Type       string    `json:"type"`
	PatientID  string    `json:"patientId"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New 创建事件
func New(eventType, patientID string, payload any) Event {
	return Event{Type: eventType, PatientID: patientID, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi 依次发布到所有 Publisher，汇总错误
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logged 包装 Publisher：失败只打 warn，不影响用户操作
type Logged struct {
	next   Publisher
	logger *zap.Logger
}

func NewLogged(next Publisher, logger *zap.Logger) *Logged {
	return &Logged{next: next, logger: logger}
}

func (l *Logged) Publish(ctx context.Context, e Event) error {
	if err := l.next.Publish(ctx, e); err != nil {
		l.logger.Warn("event publish failed",
			zap.String("type", e.Type),
			zap.String("patient_id", e.PatientID),
			zap.Error(err),
		)
	}
	return nil
}
