// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

//go:build js && wasm

package browser

import (
	"errors"
	"syscall/js"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/protect"
	"github.com/tomtom215/lectern/internal/protect/reporter"
)

type listener struct {
	target  js.Value
	event   string
	fn      js.Func
	capture bool
}

// Mount is one protected region bound to the DOM. Unmount is the single place
// that removes every listener, DOM node and wrapper it installed.
type Mount struct {
	session *protect.Session
	opts    MountOptions

	window   js.Value
	document js.Value
	root     js.Value

	style      js.Value
	overlay    js.Value
	title      js.Value
	message    js.Value
	watermarks js.Value
	toast      js.Value

	listeners []listener
	funcs     []js.Func

	mediaDevices  js.Value
	displayMedia  js.Value
	wrappedMedia  bool
	restoreFilter string

	// seedViewport records the baseline height once the session runs.
	seedViewport func()
}

// NewMount creates the session for opts, installs listeners and starts it.
func NewMount(opts MountOptions) (*Mount, error) {
	window := js.Global()
	document := window.Get("document")
	if document.IsUndefined() {
		return nil, errors.New("no document available")
	}
	root := document.Call("querySelector", opts.Root)
	if root.IsNull() {
		root = document.Get("body")
	}

	m := &Mount{opts: opts, window: window, document: document, root: root}

	env := protect.Env{
		Sink:      reporter.New(reporter.Config{Endpoint: opts.Endpoint, Token: opts.Token}),
		DevTools:  protect.GeometryDetector{Probe: windowProbe{window}, Threshold: opts.ProtectionConfig().DevToolsThreshold},
		Clipboard: m.clipboard(),
	}
	popts := opts.Options
	popts.OnRender = m.paint
	if popts.UserAgent == "" {
		popts.UserAgent = window.Get("navigator").Get("userAgent").String()
	}

	session, err := protect.NewSession(opts.ProtectionConfig(), popts, env)
	if err != nil {
		return nil, err
	}
	m.session = session

	m.installDOM()
	m.installListeners()
	m.wrapDisplayMedia()
	session.Start()
	m.seedViewport()
	return m, nil
}

// Status returns the session status.
func (m *Mount) Status() protect.Status {
	return m.session.Status()
}

// Unmount stops the session and releases everything NewMount installed.
func (m *Mount) Unmount() {
	m.session.Stop()

	for _, l := range m.listeners {
		l.target.Call("removeEventListener", l.event, l.fn, l.capture)
		l.fn.Release()
	}
	m.listeners = nil

	if m.wrappedMedia {
		m.mediaDevices.Set("getDisplayMedia", m.displayMedia)
		m.wrappedMedia = false
	}
	for _, fn := range m.funcs {
		fn.Release()
	}
	m.funcs = nil

	for _, node := range []js.Value{m.style, m.overlay, m.watermarks, m.toast} {
		if !node.IsUndefined() && !node.IsNull() {
			node.Call("remove")
		}
	}
	m.root.Get("style").Set("filter", m.restoreFilter)
}

func (m *Mount) installDOM() {
	head := m.document.Get("head")

	m.style = m.document.Call("createElement", "style")
	m.style.Set("textContent", StyleSheet(m.opts.Root, m.opts.EnableDragBlock))
	head.Call("appendChild", m.style)

	body := m.document.Get("body")

	m.overlay = m.document.Call("createElement", "div")
	m.overlay.Call("setAttribute", "role", "alert")
	m.overlay.Call("setAttribute", "style", "display:none")
	m.title = m.document.Call("createElement", "h2")
	m.message = m.document.Call("createElement", "p")
	m.overlay.Call("appendChild", m.title)
	m.overlay.Call("appendChild", m.message)
	body.Call("appendChild", m.overlay)

	m.watermarks = m.document.Call("createElement", "div")
	m.watermarks.Call("setAttribute", "aria-hidden", "true")
	body.Call("appendChild", m.watermarks)

	m.toast = m.document.Call("createElement", "div")
	m.toast.Call("setAttribute", "role", "status")
	m.toast.Call("setAttribute", "style", "display:none")
	body.Call("appendChild", m.toast)

	m.restoreFilter = m.root.Get("style").Get("filter").String()
}

func (m *Mount) installListeners() {
	doc, win := m.document, m.window

	pointer := func(kind protect.SignalKind) func(js.Value) bool {
		return func(e js.Value) bool {
			m.session.Handle(protect.RawSignal{Kind: kind, PointerID: e.Get("pointerId").Int()})
			return false
		}
	}
	m.listen(doc, "pointerdown", false, pointer(protect.SignalPointerDown))
	m.listen(doc, "pointerup", false, pointer(protect.SignalPointerUp))
	m.listen(doc, "pointercancel", false, pointer(protect.SignalPointerCancel))

	m.listen(doc, "visibilitychange", false, func(js.Value) bool {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalVisibility, Hidden: doc.Get("visibilityState").String() == "hidden"})
		return false
	})
	m.listen(win, "blur", false, func(js.Value) bool {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalWindowBlur})
		return false
	})
	m.listen(win, "focus", false, func(js.Value) bool {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalWindowFocus})
		return false
	})

	// visualViewport catches toolbars that do not change innerHeight.
	viewport := win.Get("visualViewport")
	resizeTarget, height := win, func() float64 { return win.Get("innerHeight").Float() }
	if !viewport.IsUndefined() && !viewport.IsNull() {
		resizeTarget, height = viewport, func() float64 { return viewport.Get("height").Float() }
	}
	m.seedViewport = func() {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalViewportResize, ViewportHeight: height()})
	}
	m.listen(resizeTarget, "resize", false, func(js.Value) bool {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalViewportResize, ViewportHeight: height()})
		return false
	})

	// Capture phase so recognized shortcuts are cancelled before the page
	// or the browser handles them.
	m.listen(doc, "keydown", true, func(e js.Value) bool {
		d := m.session.Handle(protect.RawSignal{Kind: protect.SignalKeyDown, Key: protect.KeyStroke{
			Key:   e.Get("key").String(),
			Code:  e.Get("code").String(),
			Ctrl:  e.Get("ctrlKey").Bool(),
			Alt:   e.Get("altKey").Bool(),
			Shift: e.Get("shiftKey").Bool(),
			Meta:  e.Get("metaKey").Bool(),
		}})
		return d.Suppress
	})
	m.listen(doc, "contextmenu", true, func(js.Value) bool {
		return m.session.Handle(protect.RawSignal{Kind: protect.SignalContextMenu}).Suppress
	})
	m.listen(doc, "dragstart", true, func(js.Value) bool {
		return m.session.Handle(protect.RawSignal{Kind: protect.SignalDragStart}).Suppress
	})
}

// listen registers handler; a true return suppresses the native event.
func (m *Mount) listen(target js.Value, event string, capture bool, handler func(js.Value) bool) {
	if target.IsUndefined() || target.IsNull() {
		return
	}
	fn := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		e := args[0]
		if handler(e) {
			e.Call("preventDefault")
			e.Call("stopPropagation")
		}
		return nil
	})
	target.Call("addEventListener", event, fn, capture)
	m.listeners = append(m.listeners, listener{target: target, event: event, fn: fn, capture: capture})
}

// wrapDisplayMedia intercepts getDisplayMedia so screen recording started from
// this page is detected. Browsers without the API are left alone.
func (m *Mount) wrapDisplayMedia() {
	md := m.window.Get("navigator").Get("mediaDevices")
	if md.IsUndefined() || md.IsNull() {
		return
	}
	orig := md.Get("getDisplayMedia")
	if orig.Type() != js.TypeFunction {
		return
	}

	onEnded := js.FuncOf(func(js.Value, []js.Value) any {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalCaptureStop})
		return nil
	})
	onStream := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		tracks := args[0].Call("getTracks")
		for i := 0; i < tracks.Length(); i++ {
			tracks.Index(i).Call("addEventListener", "ended", onEnded)
		}
		return nil
	})
	wrapper := js.FuncOf(func(_ js.Value, args []js.Value) any {
		m.session.Handle(protect.RawSignal{Kind: protect.SignalCaptureStart})
		callArgs := make([]any, len(args))
		for i, a := range args {
			callArgs[i] = a
		}
		promise := orig.Call("apply", md, js.ValueOf(callArgs))
		promise.Call("then", onStream)
		return promise
	})

	m.funcs = append(m.funcs, onEnded, onStream, wrapper)
	m.mediaDevices, m.displayMedia = md, orig
	md.Set("getDisplayMedia", wrapper)
	m.wrappedMedia = true
}

// paint applies a view to the DOM.
func (m *Mount) paint(v protect.View) {
	m.overlay.Call("setAttribute", "style", OverlayStyle(v.Overlay))
	m.title.Set("textContent", v.Overlay.Title)
	m.message.Set("textContent", v.Overlay.Message)
	m.root.Get("style").Set("filter", ContentFilter(v))

	m.watermarks.Set("textContent", "")
	if v.Watermark.Visible {
		for _, mark := range v.Watermark.Marks {
			el := m.document.Call("createElement", "div")
			el.Call("setAttribute", "style", MarkStyle(mark))
			el.Set("textContent", v.Watermark.Text)
			m.watermarks.Call("appendChild", el)
		}
	}

	if v.Toast.Visible {
		m.toast.Call("setAttribute", "style", "position:fixed;bottom:1.5rem;left:50%;transform:translateX(-50%);"+
			"z-index:2147483647;background:#b91c1c;color:#fff;padding:.75rem 1.25rem;border-radius:.5rem;font:500 14px system-ui,sans-serif")
		m.toast.Set("textContent", v.Toast.Message)
	} else {
		m.toast.Call("setAttribute", "style", "display:none")
	}
}

func (m *Mount) clipboard() protect.Clipboard {
	clip := m.window.Get("navigator").Get("clipboard")
	if clip.IsUndefined() || clip.IsNull() {
		return nil
	}
	ignore := js.FuncOf(func(js.Value, []js.Value) any { return nil })
	m.funcs = append(m.funcs, ignore)
	return jsClipboard{clip: clip, ignore: ignore}
}

type jsClipboard struct {
	clip   js.Value
	ignore js.Func
}

// WriteText starts the write; permission failures resolve into the ignore
// handler instead of surfacing as unhandled rejections.
func (c jsClipboard) WriteText(text string) error {
	promise := c.clip.Call("writeText", text)
	if promise.Type() == js.TypeObject {
		promise.Call("catch", c.ignore)
	}
	return nil
}

type windowProbe struct {
	window js.Value
}

func (p windowProbe) Geometry() (protect.Geometry, bool) {
	outer := p.window.Get("outerWidth")
	if outer.Type() != js.TypeNumber || outer.Float() == 0 {
		return protect.Geometry{}, false
	}
	return protect.Geometry{
		OuterWidth:  outer.Float(),
		OuterHeight: p.window.Get("outerHeight").Float(),
		InnerWidth:  p.window.Get("innerWidth").Float(),
		InnerHeight: p.window.Get("innerHeight").Float(),
	}, true
}

func init() {
	// Browser console output is limited to problems.
	logging.SetLevelString("warn")
}
