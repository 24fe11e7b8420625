// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package detection raises alerts from the security log stream.

The Engine consumes records from the event bus and runs each enabled
Detector against them:

  - RepeatedAttemptsDetector: a user's screenshot-family records reach a
    threshold (default 5) within a window (default 1h). It fires once per
    crossing and re-arms after the count drops below the threshold.
  - MultiVectorDetector: a user triggers at least three distinct actions
    within ten minutes.

Detectors keep per-user sliding windows from internal/cache keyed by the
record's user ID and timed by the server-stamped record timestamp, so
replayed or delayed records are evaluated in log time.

Alerts are saved to an AlertStore (MemoryAlertStore by default), broadcast
to websocket clients as "security_alert" messages and delivered
asynchronously to registered notifiers. WebhookNotifier is rate limited
with golang.org/x/time/rate.

Detection never feeds back into the log: alerts are a derived view and the
security log itself stays append-only.
*/
package detection
