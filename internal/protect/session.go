// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tomtom215/lectern/internal/actions"
)

// Options is the activation contract a page mounts protection with.
type Options struct {
	EnableWatermark         bool `json:"enableWatermark"`
	EnableBlurOnFocusLoss   bool `json:"enableBlurOnFocusLoss"`
	EnableKeyboardBlock     bool `json:"enableKeyboardBlock"`
	EnableContextMenuBlock  bool `json:"enableContextMenuBlock"`
	EnableDevToolsDetection bool `json:"enableDevToolsDetection"`
	EnableDragBlock         bool `json:"enableDragBlock"`

	// ReportFocusLoss also logs blur_violation when a focus loss locks the page.
	ReportFocusLoss bool `json:"reportFocusLoss"`

	WatermarkText string `json:"watermarkText"`
	Page          string `json:"page"`
	UserAgent     string `json:"userAgent"`

	// TouchDevice skips the blur debounce.
	TouchDevice bool `json:"touchDevice"`

	OnScreenshotAttempt func()          `json:"-"`
	OnRecordingDetected func()          `json:"-"`
	OnEscalation        func(count int) `json:"-"`
	OnRender            func(View)      `json:"-"`
}

// Clipboard is the best-effort clipboard writer.
type Clipboard interface {
	WriteText(text string) error
}

// Env holds the platform collaborators of a session. Nil fields disable the
// matching feature; Clock defaults to SystemClock.
type Env struct {
	Clock     Clock
	Sink      Sink
	DevTools  DevToolsDetector
	Clipboard Clipboard
}

// Session is one mounted protection region. Every input and every timer
// callback is serialized through mu; callbacks and sink deliveries run after
// the lock is released so they may call back into the session.
type Session struct {
	cfg  Config
	opts Options
	env  Env

	mu      sync.Mutex
	running bool
	pending []func()
	dirty   bool

	sampler    *Sampler
	classifier *Classifier
	machine    *Machine
	chrome     Chrome
	away       bool
	rng        *rand.Rand
	queue      *queue

	blurDebounce *timerSlot
	countdown    *timerSlot
	devToolsPoll *timerSlot
	watermark    *timerSlot
	toast        *timerSlot
}

// NewSession validates cfg and prepares a session. Call Start to activate it.
func NewSession(cfg Config, opts Options, env Env) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protection config: %w", err)
	}
	if env.Clock == nil {
		env.Clock = SystemClock
	}

	s := &Session{cfg: cfg, opts: opts, env: env}
	s.blurDebounce = newTimerSlot(env.Clock, s.fire)
	s.countdown = newTimerSlot(env.Clock, s.fire)
	s.devToolsPoll = newTimerSlot(env.Clock, s.fire)
	s.watermark = newTimerSlot(env.Clock, s.fire)
	s.toast = newTimerSlot(env.Clock, s.fire)
	s.reset()
	return s, nil
}

// Start activates the session. Calling Start on a running session is a no-op.
func (s *Session) Start() {
	s.locked(func() {
		if s.running {
			return
		}
		s.running = true
		s.reset()

		if s.env.Sink != nil {
			s.queue = newQueue(s.env.Sink, s.cfg.QueueSize)
		}
		if s.opts.EnableDevToolsDetection && s.env.DevTools != nil {
			s.devToolsPoll.Every(s.cfg.DevToolsPollInterval, s.pollDevTools)
		}
		if s.opts.EnableWatermark {
			s.chrome.WatermarkEnabled = true
			s.chrome.WatermarkText = s.opts.WatermarkText
			s.chrome.Marks = scatterMarks(s.rng, s.cfg.WatermarkCount)
			s.watermark.Every(s.cfg.WatermarkInterval, s.rotateWatermark)
		}
		s.dirty = true
	})
}

// Stop deactivates the session: it cancels every timer slot and resets all
// state. Reports already queued are still delivered in the background; Stop
// never waits on the sink. Stop is idempotent.
func (s *Session) Stop() {
	var q *queue
	s.locked(func() {
		if !s.running {
			return
		}
		s.running = false

		s.blurDebounce.Cancel()
		s.countdown.Cancel()
		s.devToolsPoll.Cancel()
		s.watermark.Cancel()
		s.toast.Cancel()

		s.reset()
		q, s.queue = s.queue, nil
		s.dirty = false
	})
	if q != nil {
		q.close()
	}
}

// Handle processes one browser signal and tells the adapter whether to
// suppress the native event. Signals are ignored while the session is stopped.
func (s *Session) Handle(sig RawSignal) Disposition {
	var d Disposition
	s.locked(func() {
		if !s.running {
			return
		}
		if sig.At.IsZero() {
			sig.At = s.env.Clock.Now()
		}
		d = s.handle(sig)
	})
	return d
}

// Status returns the activation-contract view of the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State().Status()
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.machine.State(), s.chrome)
}

func (s *Session) handle(sig RawSignal) Disposition {
	switch sig.Kind {
	case SignalPointerDown:
		if n, ok := s.sampler.Pointers.Down(sig.PointerID); ok {
			s.emit(s.classifier.Gesture(n, sig.At))
		}
	case SignalPointerUp:
		s.sampler.Pointers.Up(sig.PointerID)
	case SignalPointerCancel:
		s.sampler.Pointers.Cancel()

	case SignalVisibility:
		span, shown := s.sampler.Visibility.Change(sig.Hidden, sig.At)
		if sig.Hidden {
			s.blurDebounce.Cancel()
			s.loseFocus(sig.At, true)
			break
		}
		if shown {
			if v, ok := s.classifier.Hidden(span); ok {
				s.emit(v)
			}
		}
		s.regainFocus()

	case SignalWindowBlur:
		if s.opts.TouchDevice {
			s.loseFocus(sig.At, false)
			break
		}
		s.blurDebounce.Start(s.cfg.BlurDebounce, func() {
			s.loseFocus(s.env.Clock.Now(), false)
		})

	case SignalWindowFocus:
		if s.blurDebounce.Active() && !s.sampler.Visibility.Hidden() {
			s.blurDebounce.Cancel()
			break
		}
		s.regainFocus()

	case SignalViewportResize:
		if shift, ok := s.sampler.Viewport.Resize(sig.ViewportHeight, sig.At); ok {
			s.emit(s.classifier.Viewport(shift, sig.At))
		}

	case SignalKeyDown:
		if !s.opts.EnableKeyboardBlock {
			break
		}
		kind, name := MatchCombo(sig.Key)
		if v, ok := s.classifier.Combo(kind, name, sig.At); ok {
			s.emit(v)
			return Disposition{Suppress: true}
		}

	case SignalContextMenu:
		if s.opts.EnableContextMenuBlock {
			s.emit(s.classifier.ContextMenu(sig.At))
			return Disposition{Suppress: true}
		}

	case SignalDragStart:
		if s.opts.EnableDragBlock {
			return Disposition{Suppress: true}
		}

	case SignalCaptureStart:
		s.machine.SetRecording(true)
		s.emit(s.classifier.Recording(sig.At))
	case SignalCaptureStop:
		s.machine.SetRecording(false)
	}
	return Disposition{}
}

// emit handles a discrete classified violation: it drives the machine,
// schedules callbacks and publishes the report.
func (s *Session) emit(v Violation) {
	if s.machine.Violate(v) {
		s.writeClipboard()
		s.showToast(toastMessage(v.Type))
	} else if v.Type == ViolationContextMenu {
		s.showToast(toastMessage(v.Type))
	}

	switch v.Type {
	case ViolationScreenshotGesture, ViolationScreenshotSuspect, ViolationUIObstruct:
		s.callback(s.opts.OnScreenshotAttempt)
	case ViolationRecording:
		s.callback(s.opts.OnRecordingDetected)
	}

	s.publish(v)
}

// emitLevel applies a level-triggered devtools transition from the geometry
// poll. Only the rising edge is audited and it never counts as an attempt.
func (s *Session) emitLevel(open bool, at time.Time) {
	s.machine.SetDevTools(open)
	if open {
		s.publish(s.classifier.DevToolsGeometry(at))
	}
}

// publish queues the audit report for v, plus the escalation report when v
// crosses the threshold. Every report leaves the session through here.
func (s *Session) publish(v Violation) {
	s.report(v.Type.Action(), v.Details, v.At)

	if count, crossed := s.classifier.Escalate(v); crossed {
		if cb := s.opts.OnEscalation; cb != nil {
			s.after(func() { cb(count) })
		}
		s.report(actions.RepeatedScreenshotAttempts, map[string]any{
			"count":         count,
			"windowMinutes": int(s.cfg.EscalationWindow / time.Minute),
		}, v.At)
	}
}

// loseFocus locks the page for a debounced blur or a hidden document.
func (s *Session) loseFocus(at time.Time, hidden bool) {
	if !s.opts.EnableBlurOnFocusLoss {
		return
	}
	wasAway := s.away
	s.away = true
	s.machine.Blur()
	if s.opts.ReportFocusLoss && !wasAway {
		s.publish(s.classifier.FocusLoss(at, hidden))
	}
}

// regainFocus restarts the blur cooldown when content reappears so the page
// stays covered for the full cooldown measured from the return.
func (s *Session) regainFocus() {
	if !s.away {
		return
	}
	s.away = false
	s.machine.Blur()
}

func (s *Session) pollDevTools() {
	open, changed := s.classifier.PollDevTools()
	if !changed {
		return
	}
	s.emitLevel(open, s.env.Clock.Now())
}

func (s *Session) rotateWatermark() {
	if s.machine.State().Phase == PhaseLocked {
		return
	}
	s.chrome.Marks = scatterMarks(s.rng, s.cfg.WatermarkCount)
	s.dirty = true
}

func (s *Session) showToast(msg string) {
	s.chrome.Toast = msg
	s.dirty = true
	s.toast.Start(s.cfg.ToastDuration, func() {
		s.chrome.Toast = ""
		s.dirty = true
	})
}

func (s *Session) writeClipboard() {
	clip, text := s.env.Clipboard, s.cfg.ClipboardWarning
	if clip == nil || text == "" {
		return
	}
	s.after(func() { _ = clip.WriteText(text) })
}

func (s *Session) report(action actions.Action, details map[string]any, at time.Time) {
	q := s.queue
	if q == nil {
		return
	}
	r := Report{
		Action:    action,
		Page:      s.opts.Page,
		Details:   details,
		Timestamp: at,
		UserAgent: s.opts.UserAgent,
	}
	s.after(func() { q.enqueue(r) })
}

func (s *Session) callback(fn func()) {
	if fn != nil {
		s.after(fn)
	}
}

// after schedules fn to run once the lock is released.
// Must be called with lock held.
func (s *Session) after(fn func()) {
	s.pending = append(s.pending, fn)
}

// reset rebuilds per-activation state.
// Must be called with lock held.
func (s *Session) reset() {
	s.sampler = NewSampler(s.cfg)
	s.classifier = NewClassifier(s.cfg, s.env.DevTools)
	s.machine = newMachine(s.cfg, s.countdown, func() { s.dirty = true })
	s.chrome = Chrome{}
	s.away = false
	now := s.env.Clock.Now()
	s.rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x9e3779b97f4a7c15))
}

// fire runs a timer callback under the lock, dropping it once stopped.
func (s *Session) fire(fn func()) {
	s.locked(func() {
		if s.running {
			fn()
		}
	})
}

// locked runs fn under the session lock, then runs the effects it scheduled
// and the render callback outside the lock.
func (s *Session) locked(fn func()) {
	s.mu.Lock()
	fn()
	effects := s.pending
	s.pending = nil
	if s.dirty && s.running && s.opts.OnRender != nil {
		view, render := Render(s.machine.State(), s.chrome), s.opts.OnRender
		effects = append(effects, func() { render(view) })
	}
	s.dirty = false
	s.mu.Unlock()

	for _, effect := range effects {
		effect()
	}
}
