// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package cache provides time-windowed counters for rate and threshold checks.

Every operation takes the event time from the caller, so the windows follow
record timestamps rather than wall-clock arrival. This keeps detection
results reproducible when records are replayed from the event bus.

# Types

  - EventWindow counts events in a rolling window
  - EventWindowStore keeps one EventWindow per key, such as a user ID
  - UniqueValueWindow counts distinct values in a rolling window
  - UniqueValueStore keeps one UniqueValueWindow per key

# Usage

The client escalation counter:

	w := cache.NewEventWindow(time.Hour, 0)
	if w.AddAt(now) >= 5 {
	    // escalate
	}

Per-user detection rules:

	attempts := cache.NewEventWindowStore(10*time.Minute, 0, 10000)
	n := attempts.AddAt(rec.UserID, rec.Timestamp)

	vectors := cache.NewUniqueValueStore(time.Hour, 10000)
	distinct := vectors.AddAt(rec.UserID, string(rec.Action), rec.Timestamp)

# Thread Safety

All types are safe for concurrent use. Stores create windows lazily and
evict an arbitrary key once maxKeys is reached.
*/
package cache
