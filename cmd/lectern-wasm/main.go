// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

//go:build js && wasm

// Command lectern-wasm is the browser build of the protection engine.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o web/lectern.wasm ./cmd/lectern-wasm
//
// The module registers a global function:
//
//	const handle = lecternProtect({ watermarkText: user.email, page: location.pathname,
//	                                onScreenshotAttempt: () => {...} });
//	handle.status();  // {isBlurred, isRecording, isDevToolsOpen, isViolation, countdown, violationType, attemptCount}
//	handle.stop();
package main

import (
	"syscall/js"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/browser"
	"github.com/tomtom215/lectern/internal/logging"
)

func main() {
	protectFn := js.FuncOf(protect)
	js.Global().Set("lecternProtect", protectFn)

	// Keep the runtime alive for callbacks.
	select {}
}

func protect(_ js.Value, args []js.Value) any {
	var arg js.Value
	if len(args) > 0 {
		arg = args[0]
	}

	raw := ""
	if arg.Type() == js.TypeObject {
		raw = js.Global().Get("JSON").Call("stringify", arg).String()
	}
	opts, err := browser.DecodeOptions([]byte(raw))
	if err != nil {
		logging.Error().Err(err).Msg("lecternProtect: invalid options")
		return js.Null()
	}

	// JSON.stringify drops functions, so callbacks are bound separately.
	if arg.Type() == js.TypeObject {
		opts.OnScreenshotAttempt = jsCallback(arg.Get("onScreenshotAttempt"))
		opts.OnRecordingDetected = jsCallback(arg.Get("onRecordingDetected"))
		if fn := arg.Get("onEscalation"); fn.Type() == js.TypeFunction {
			opts.OnEscalation = func(count int) { fn.Invoke(count) }
		}
	}

	mount, err := browser.NewMount(opts)
	if err != nil {
		logging.Error().Err(err).Msg("lecternProtect: mount failed")
		return js.Null()
	}

	var statusFn, stopFn js.Func
	statusFn = js.FuncOf(func(js.Value, []js.Value) any {
		data, err := json.Marshal(mount.Status())
		if err != nil {
			return js.Null()
		}
		return js.Global().Get("JSON").Call("parse", string(data))
	})
	stopped := false
	stopFn = js.FuncOf(func(js.Value, []js.Value) any {
		if stopped {
			return nil
		}
		stopped = true
		mount.Unmount()
		statusFn.Release()
		// stopFn itself is released after the current call returns.
		go stopFn.Release()
		return nil
	})

	handle := js.Global().Get("Object").New()
	handle.Set("status", statusFn)
	handle.Set("stop", stopFn)
	return handle
}

func jsCallback(fn js.Value) func() {
	if fn.Type() != js.TypeFunction {
		return nil
	}
	return func() { fn.Invoke() }
}
