package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/settings"
)

// Alert is a danger notification for a risky page.
type Alert struct {
	SessionID string          `json:"session_id"`
	Domain    string          `json:"domain"`
	Score     int             `json:"score"`
	Level     model.RiskLevel `json:"level"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notifier delivers alerts. An error means the alert was not shown, so the
// cooldown does not start.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	Logger logging.Logger
}

func (n LogNotifier) Notify(_ context.Context, a Alert) error {
	n.Logger.Warn(a.Title,
		logging.Field{Key: "session", Value: a.SessionID},
		logging.Field{Key: "domain", Value: a.Domain},
		logging.Field{Key: "score", Value: a.Score},
		logging.Field{Key: "message", Value: a.Message})
	return nil
}

// AlertThreshold is the lowest score that raises an alert: margin points
// below the first high score.
func AlertThreshold(mediumMax, margin int) int {
	return max(0, mediumMax+1-margin)
}

type alertState struct {
	domain string
	at     time.Time
}

func (m *Monitor) maybeAlert(ctx context.Context, s *session, result model.DetectionResult, st settings.Settings) {
	if !st.EnableDangerAlerts || m.notifier == nil {
		return
	}
	if result.Score < AlertThreshold(st.MediumMax, m.cfg.AlertMargin) {
		return
	}

	now := m.now()
	s.mu.Lock()
	last := s.alert
	s.mu.Unlock()
	if last != nil && last.domain == result.Domain && now.Sub(last.at) < m.cfg.AlertCooldown {
		return
	}

	severity := "ELEVATED"
	if result.Level == model.RiskHigh {
		severity = "HIGH"
	}
	alert := Alert{
		SessionID: s.id,
		Domain:    result.Domain,
		Score:     result.Score,
		Level:     result.Level,
		Title:     fmt.Sprintf("NyxGuard: %s risk", severity),
		Message:   fmt.Sprintf("%s scores %d/100. Avoid entering sensitive data.", result.Domain, result.Score),
		Timestamp: now,
	}

	if err := m.notifier.Notify(ctx, alert); err != nil {
		m.logger.Warn("danger alert not delivered",
			logging.Field{Key: "session", Value: s.id},
			logging.Err(err))
		return
	}

	s.mu.Lock()
	s.alert = &alertState{domain: result.Domain, at: now}
	s.mu.Unlock()

	m.emit(Event{Type: EventAlert, SessionID: s.id, Alert: &alert})
}
