// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/lectern/internal/seclog"
)

// ErrAlertNotFound is returned when an alert ID is unknown.
var ErrAlertNotFound = errors.New("alert not found")

// RuleType identifies the type of detection rule.
type RuleType string

const (
	// RuleTypeRepeatedAttempts flags users who keep trying to capture content.
	RuleTypeRepeatedAttempts RuleType = "repeated_attempts"

	// RuleTypeMultiVector flags users probing several protections in a short span.
	RuleTypeMultiVector RuleType = "multi_vector"
)

// Severity indicates the severity level of an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is raised when a detector matches.
type Alert struct {
	ID             string         `json:"id"`
	RuleType       RuleType       `json:"ruleType"`
	UserID         string         `json:"userId"`
	UserName       string         `json:"userName,omitempty"`
	Severity       Severity       `json:"severity"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedBy string         `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time     `json:"acknowledgedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Detector evaluates security log records against one rule.
type Detector interface {
	// Type returns the rule type this detector implements.
	Type() RuleType

	// Check returns an alert when rec completes a match, nil otherwise.
	Check(ctx context.Context, rec *seclog.Record) (*Alert, error)

	Enabled() bool
	SetEnabled(enabled bool)
}

// AlertStore persists alerts.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *Alert) error
	GetAlert(ctx context.Context, id string) (*Alert, error)

	// ListAlerts returns matching alerts, newest first.
	ListAlerts(ctx context.Context, filter AlertFilter) ([]Alert, error)

	AcknowledgeAlert(ctx context.Context, id, acknowledgedBy string) error
	GetAlertCount(ctx context.Context, filter AlertFilter) (int, error)
}

// AlertFilter defines filtering options for alert queries.
type AlertFilter struct {
	RuleType     RuleType
	UserID       string
	Acknowledged *bool
	Limit        int
	Offset       int
}

func (f AlertFilter) matches(a *Alert) bool {
	if f.RuleType != "" && a.RuleType != f.RuleType {
		return false
	}
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.Acknowledged != nil && a.Acknowledged != *f.Acknowledged {
		return false
	}
	return true
}

// Notifier delivers alerts to an external channel.
type Notifier interface {
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name (e.g., "webhook").
	Name() string

	Enabled() bool
}

// AlertBroadcaster broadcasts alerts via WebSocket.
type AlertBroadcaster interface {
	BroadcastJSON(messageType string, data any)
}
