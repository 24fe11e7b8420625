// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/seclog"
)

// MessageTypeAlert is the websocket message type for alerts.
const MessageTypeAlert = "security_alert"

// notifyTimeout bounds one notifier delivery; deliveries outlive the
// message that triggered them.
const notifyTimeout = 15 * time.Second

// Engine coordinates detection rule evaluation and alert generation.
type Engine struct {
	detectors   []Detector
	alertStore  AlertStore
	notifiers   []Notifier
	broadcaster AlertBroadcaster

	mu      sync.RWMutex
	enabled bool

	statsMu sync.Mutex
	stats   EngineMetrics

	// wg tracks in-flight notifications.
	wg sync.WaitGroup
}

// EngineMetrics tracks detection engine activity.
type EngineMetrics struct {
	EventsProcessed int64                       `json:"eventsProcessed"`
	AlertsGenerated int64                       `json:"alertsGenerated"`
	DetectionErrors int64                       `json:"detectionErrors"`
	LastProcessedAt time.Time                   `json:"lastProcessedAt"`
	DetectorMetrics map[RuleType]DetectorMetric `json:"detectors"`
}

// DetectorMetric tracks one detector.
type DetectorMetric struct {
	EventsChecked   int64      `json:"eventsChecked"`
	AlertsGenerated int64      `json:"alertsGenerated"`
	Errors          int64      `json:"errors"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt,omitempty"`
}

// NewEngine creates a detection engine. broadcaster may be nil.
func NewEngine(alertStore AlertStore, broadcaster AlertBroadcaster) *Engine {
	return &Engine{
		alertStore:  alertStore,
		broadcaster: broadcaster,
		enabled:     true,
		stats: EngineMetrics{
			DetectorMetrics: make(map[RuleType]DetectorMetric),
		},
	}
}

// NewEngineFromConfig creates an engine with the detectors cfg enables and,
// when a webhook URL is set, a webhook notifier.
func NewEngineFromConfig(cfg Config, alertStore AlertStore, broadcaster AlertBroadcaster) *Engine {
	e := NewEngine(alertStore, broadcaster)
	e.SetEnabled(cfg.Enabled)
	e.RegisterDetector(NewRepeatedAttemptsDetector(cfg.RepeatedAttempts))
	e.RegisterDetector(NewMultiVectorDetector(cfg.MultiVector))
	if cfg.Webhook.URL != "" {
		e.RegisterNotifier(NewWebhookNotifier(cfg.Webhook))
	}
	return e
}

// RegisterDetector adds a detector, replacing one of the same type.
func (e *Engine) RegisterDetector(detector Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ruleType := detector.Type()
	for i, d := range e.detectors {
		if d.Type() == ruleType {
			e.detectors[i] = detector
			return
		}
	}
	e.detectors = append(e.detectors, detector)

	logging.Info().Str("detector", string(ruleType)).Bool("enabled", detector.Enabled()).Msg("registered detector")
}

// RegisterNotifier adds a notifier to the engine.
func (e *Engine) RegisterNotifier(notifier Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.notifiers = append(e.notifiers, notifier)
	logging.Info().Str("notifier", notifier.Name()).Msg("registered notifier")
}

// Process evaluates a record against all enabled detectors. Alerts are
// persisted, broadcast and handed to notifiers before Process returns;
// notifier delivery itself is asynchronous.
func (e *Engine) Process(ctx context.Context, rec *seclog.Record) ([]*Alert, error) {
	detectors := e.enabledDetectors()
	if detectors == nil {
		return nil, nil
	}

	alerts, errs := e.runDetectors(ctx, detectors, rec)

	e.statsMu.Lock()
	e.stats.EventsProcessed++
	e.stats.LastProcessedAt = time.Now()
	e.statsMu.Unlock()

	e.persistAlerts(ctx, alerts)
	e.broadcast(alerts)
	e.notify(alerts)

	if len(errs) > 0 {
		return alerts, fmt.Errorf("detection errors: %w", errors.Join(errs...))
	}
	return alerts, nil
}

// Name implements events.Consumer.
func (e *Engine) Name() string {
	return "detection"
}

// Consume implements events.Consumer. Detector errors are logged rather
// than returned: a redelivered record would be counted twice.
func (e *Engine) Consume(ctx context.Context, rec *seclog.Record) error {
	if _, err := e.Process(ctx, rec); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("record_id", rec.ID).Msg("detection failed")
	}
	return nil
}

func (e *Engine) enabledDetectors() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.enabled {
		return nil
	}

	detectors := make([]Detector, 0, len(e.detectors))
	for _, d := range e.detectors {
		if d.Enabled() {
			detectors = append(detectors, d)
		}
	}
	if len(detectors) == 0 {
		return nil
	}
	return detectors
}

func (e *Engine) runDetectors(ctx context.Context, detectors []Detector, rec *seclog.Record) ([]*Alert, []error) {
	var alerts []*Alert
	var errs []error

	for _, detector := range detectors {
		alert, err := e.runSingleDetector(ctx, detector, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if alert != nil {
			alerts = append(alerts, alert)
		}
	}
	return alerts, errs
}

func (e *Engine) runSingleDetector(ctx context.Context, detector Detector, rec *seclog.Record) (*Alert, error) {
	ruleType := detector.Type()
	alert, err := detector.Check(ctx, rec)

	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	m := e.stats.DetectorMetrics[ruleType]
	m.EventsChecked++
	defer func() { e.stats.DetectorMetrics[ruleType] = m }()

	if err != nil {
		m.Errors++
		e.stats.DetectionErrors++
		return nil, fmt.Errorf("%s: %w", ruleType, err)
	}
	if alert != nil {
		now := time.Now()
		m.AlertsGenerated++
		m.LastTriggeredAt = &now
		e.stats.AlertsGenerated++
		metrics.RecordAlert(string(ruleType))
	}
	return alert, nil
}

func (e *Engine) persistAlerts(ctx context.Context, alerts []*Alert) {
	if e.alertStore == nil {
		return
	}
	for _, alert := range alerts {
		if err := e.alertStore.SaveAlert(ctx, alert); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("alert_id", alert.ID).Msg("failed to save alert")
		}
	}
}

// notify sends alerts to all enabled notifiers.
func (e *Engine) notify(alerts []*Alert) {
	if len(alerts) == 0 {
		return
	}

	e.mu.RLock()
	notifiers := make([]Notifier, 0, len(e.notifiers))
	for _, n := range e.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	e.mu.RUnlock()

	for _, alert := range alerts {
		for _, notifier := range notifiers {
			e.wg.Add(1)
			go func(n Notifier, a *Alert) {
				defer e.wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
				defer cancel()

				err := n.Send(ctx, a)
				metrics.RecordNotification(n.Name(), err)
				if err != nil {
					logging.Error().Err(err).Str("notifier", n.Name()).Str("alert_id", a.ID).Msg("failed to send alert")
				}
			}(notifier, alert)
		}
	}
}

func (e *Engine) broadcast(alerts []*Alert) {
	if e.broadcaster == nil {
		return
	}
	for _, alert := range alerts {
		e.broadcaster.BroadcastJSON(MessageTypeAlert, alert)
	}
}

// Wait blocks until in-flight notifications finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// SetEnabled enables or disables the engine.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Enabled returns whether the engine is enabled.
func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}

// GetDetector returns a detector by rule type.
func (e *Engine) GetDetector(ruleType RuleType) (Detector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, d := range e.detectors {
		if d.Type() == ruleType {
			return d, true
		}
	}
	return nil, false
}

// ListDetectors returns all registered detectors in registration order.
func (e *Engine) ListDetectors() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Detector(nil), e.detectors...)
}

// Alerts returns the engine's alert store.
func (e *Engine) Alerts() AlertStore {
	return e.alertStore
}

// Metrics returns a snapshot of the engine metrics.
func (e *Engine) Metrics() EngineMetrics {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	snapshot := EngineMetrics{
		EventsProcessed: e.stats.EventsProcessed,
		AlertsGenerated: e.stats.AlertsGenerated,
		DetectionErrors: e.stats.DetectionErrors,
		LastProcessedAt: e.stats.LastProcessedAt,
		DetectorMetrics: make(map[RuleType]DetectorMetric, len(e.stats.DetectorMetrics)),
	}
	for k, v := range e.stats.DetectorMetrics {
		snapshot.DetectorMetrics[k] = v
	}
	return snapshot
}
