// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an operational log entry about a security-relevant
// request. It complements, and never replaces, the persisted security log.
type SecurityEvent struct {
	Event     string
	UserID    string
	Username  string
	Role      string
	IPAddress string
	UserAgent string
	Path      string
	Success   bool
	Error     string
	Details   map[string]string
}

// SecurityLogger writes SecurityEvents with identifying fields masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger uses the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("security")}
}

// NewSecurityLoggerWithLogger uses logger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "security").Logger()}
}

// LogEvent writes event at info level, or warn when it failed.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !event.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e.Str("event", event.Event).Str("status", status)

	if event.UserID != "" {
		e.Str("user_id", SanitizeUserID(event.UserID))
	}
	if event.Username != "" {
		e.Str("username", SanitizeUsername(event.Username))
	}
	if event.Role != "" {
		e.Str("role", event.Role)
	}
	if event.IPAddress != "" {
		e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Path != "" {
		e.Str("path", truncateString(event.Path, 200))
	}
	if event.Error != "" && !event.Success {
		e.Str("error", SanitizeError(event.Error))
	}
	for k, v := range event.Details {
		e.Str(k, SanitizeValue(k, v))
	}
	e.Send()
}

// LogViolationReported records that a protected page reported an action.
func (l *SecurityLogger) LogViolationReported(userID, username, action, page, ip, userAgent string) {
	l.LogEvent(&SecurityEvent{
		Event:     "violation_reported",
		UserID:    userID,
		Username:  username,
		IPAddress: ip,
		UserAgent: userAgent,
		Path:      page,
		Success:   true,
		Details:   map[string]string{"action": action},
	})
}

// LogAccessDenied records an authorization failure.
func (l *SecurityLogger) LogAccessDenied(userID, role, path, ip, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "access_denied",
		UserID:    userID,
		Role:      role,
		Path:      path,
		IPAddress: ip,
		Error:     reason,
	})
}

// LogAuditRead records an administrator reading or exporting the log.
func (l *SecurityLogger) LogAuditRead(userID, path, format string, count int) {
	e := &SecurityEvent{
		Event:   "audit_read",
		UserID:  userID,
		Path:    path,
		Success: true,
		Details: map[string]string{"records": strconv.Itoa(count)},
	}
	if format != "" {
		e.Details["format"] = format
	}
	l.LogEvent(e)
}

// LogAlertAcknowledged records an administrator acknowledging an alert.
func (l *SecurityLogger) LogAlertAcknowledged(alertID, userID string) {
	l.LogEvent(&SecurityEvent{
		Event:   "alert_acknowledged",
		UserID:  userID,
		Success: true,
		Details: map[string]string{"alert_id": alertID},
	})
}

// SanitizeToken keeps the first and last four characters of long tokens.
// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...VCJ9"
func SanitizeToken(token string) string {
	return maskMiddle(token, 12)
}

// SanitizeUserID keeps the first and last four characters of long IDs.
// Example: "learner-12345678" -> "lear...5678"
func SanitizeUserID(userID string) string {
	return maskMiddle(userID, 8)
}

func maskMiddle(s string, minLen int) string {
	if s == "" {
		return ""
	}
	if len(s) <= minLen {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// SanitizeUsername keeps the first two characters.
// Example: "johndoe" -> "jo***"
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks the local part.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

var sensitiveErrorWords = []string{
	"password", "secret", "token", "key", "bearer", "authorization", "cookie",
}

// SanitizeError replaces messages that may quote credentials and truncates
// the rest to 200 characters.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, w := range sensitiveErrorWords {
		if strings.Contains(lower, w) {
			return "authentication error"
		}
	}
	return truncateString(err, 200)
}

var sensitiveKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"password":      true,
	"secret":        true,
	"api_key":       true,
	"authorization": true,
	"cookie":        true,
	"session":       true,
}

// SanitizeValue masks value when key names a credential and masks
// email-like values.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
