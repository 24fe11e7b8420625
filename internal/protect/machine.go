// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import "time"

// Machine owns State and the countdown slot. It is driven by the session
// under its lock; changed is called after every mutation.
type Machine struct {
	cfg       Config
	state     State
	countdown *timerSlot
	changed   func()
}

func newMachine(cfg Config, countdown *timerSlot, changed func()) *Machine {
	m := &Machine{cfg: cfg, countdown: countdown, changed: changed}
	m.state = initialState()
	return m
}

func initialState() State {
	return State{Phase: PhaseNormal, Mode: ModeNormal}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// Violate enters Violation for a lockout-type violation. It replaces any
// running countdown and increments AttemptCount. Returns false for types that
// do not lock.
func (m *Machine) Violate(v Violation) bool {
	if !v.Type.Locks() {
		return false
	}
	m.state.AttemptCount++
	m.state.ActiveViolation = v.Type
	m.start(ModeViolation, m.cfg.ViolationCooldown)
	return true
}

// Blur enters Blurred and (re)starts the blur countdown. It never preempts a
// running Violation and returns false in that case.
func (m *Machine) Blur() bool {
	if m.state.Mode == ModeViolation && m.state.CountdownSeconds > 0 {
		return false
	}
	m.state.ActiveViolation = ""
	m.start(ModeBlurred, m.cfg.BlurCooldown)
	return true
}

// SetDevTools sets the devtools level. Returns whether it changed.
func (m *Machine) SetDevTools(open bool) bool {
	if m.state.DevToolsOpen == open {
		return false
	}
	m.state.DevToolsOpen = open
	m.sync()
	return true
}

// SetRecording sets the recording flag. Returns whether it changed.
func (m *Machine) SetRecording(on bool) bool {
	if m.state.Recording == on {
		return false
	}
	m.state.Recording = on
	m.sync()
	return true
}

// Reset cancels the countdown and returns to the initial state.
func (m *Machine) Reset() {
	m.countdown.Cancel()
	m.state = initialState()
}

func (m *Machine) start(mode Mode, d time.Duration) {
	m.countdown.Cancel()
	m.state.Mode = mode
	m.state.CountdownSeconds = m.cfg.cooldownSeconds(d)
	m.countdown.Every(time.Second, m.tick)
	m.sync()
}

func (m *Machine) tick() {
	if m.state.CountdownSeconds > 0 {
		m.state.CountdownSeconds--
	}
	if m.state.CountdownSeconds == 0 {
		m.countdown.Cancel()
		m.state.Mode = ModeNormal
		m.state.ActiveViolation = ""
	}
	m.sync()
}

// sync derives Phase and notifies.
func (m *Machine) sync() {
	if m.state.CountdownSeconds > 0 || m.state.DevToolsOpen {
		m.state.Phase = PhaseLocked
	} else {
		m.state.Phase = PhaseNormal
	}
	if m.changed != nil {
		m.changed()
	}
}
