// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package protect is the client-side content protection engine.

It observes normalized browser signals, classifies them into violations and
drives a countdown-gated lockout of protected lesson content. The package is
platform independent: the js/wasm adapter in internal/browser turns DOM events
into RawSignal values and paints the View produced by Render.

# Pipeline

	RawSignal -> Sampler -> Classifier -> Machine -> {Render, Sink}

  - Sampler: pointer set, viewport baseline, hide/show spans, keyboard combos
  - Classifier: threshold bands, devtools level, escalation window
  - Machine: Normal, Blurred and Violation modes plus the devtools level
  - Render: pure function from State and Chrome to View
  - Sink: bounded asynchronous delivery of Report values

# Lifecycle

A Session is created with NewSession and activated with Start. Stop is the
single teardown point: it cancels the five timer slots (blur debounce,
countdown, devtools poll, watermark rotation, toast expiry) and resets state.
It never waits on the Sink: reports already queued are delivered by the
queue's own goroutine after Stop returns.

# Concurrency

All inputs and timer callbacks are serialized through the session mutex.
Timers live in single-slot, generation-tagged timerSlot values, so re-arming a
slot cancels the previous timer and a callback that lost the race is dropped.
User callbacks, OnRender and report enqueueing run after the lock is released.

# Limitations

Protection is deterrence and audit, not prevention. OS-level capture cannot be
blocked from a web page, and devtools detection is a geometry heuristic that
also fires for docked side panels.
*/
package protect
