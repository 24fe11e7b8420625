// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import "strings"

// ComboKind classifies a recognized keyboard shortcut.
type ComboKind int

const (
	ComboNone ComboKind = iota
	ComboScreenshot
	ComboDevTools
)

// combo describes one shortcut. anyMods matches regardless of modifiers;
// otherwise modifiers must match exactly, with primary accepting Ctrl or Meta.
type combo struct {
	name    string
	kind    ComboKind
	code    string
	anyMods bool
	ctrl    bool
	meta    bool
	primary bool
	shift   bool
	alt     bool
}

var combos = []combo{
	{name: "PrintScreen", kind: ComboScreenshot, code: "PrintScreen", anyMods: true},
	{name: "Win+Shift+S", kind: ComboScreenshot, code: "KeyS", meta: true, shift: true},
	{name: "Win+G", kind: ComboScreenshot, code: "KeyG", meta: true},
	{name: "Cmd+Shift+3", kind: ComboScreenshot, code: "Digit3", meta: true, shift: true},
	{name: "Cmd+Shift+4", kind: ComboScreenshot, code: "Digit4", meta: true, shift: true},
	{name: "Cmd+Shift+5", kind: ComboScreenshot, code: "Digit5", meta: true, shift: true},
	{name: "Cmd+Shift+6", kind: ComboScreenshot, code: "Digit6", meta: true, shift: true},
	{name: "Ctrl+Shift+S", kind: ComboScreenshot, code: "KeyS", ctrl: true, shift: true},

	{name: "F12", kind: ComboDevTools, code: "F12", anyMods: true},
	{name: "Ctrl+Shift+I", kind: ComboDevTools, code: "KeyI", primary: true, shift: true},
	{name: "Ctrl+Shift+J", kind: ComboDevTools, code: "KeyJ", primary: true, shift: true},
	{name: "Ctrl+Shift+C", kind: ComboDevTools, code: "KeyC", primary: true, shift: true},
}

// MatchCombo looks k up in the shortcut table and returns its kind and name.
func MatchCombo(k KeyStroke) (ComboKind, string) {
	code := keyCode(k)
	if code == "" {
		return ComboNone, ""
	}
	for _, c := range combos {
		if c.code == code && c.matches(k) {
			return c.kind, c.name
		}
	}
	return ComboNone, ""
}

func (c combo) matches(k KeyStroke) bool {
	if c.anyMods {
		return true
	}
	if k.Shift != c.shift || k.Alt != c.alt {
		return false
	}
	if c.primary {
		return k.Ctrl != k.Meta
	}
	return k.Ctrl == c.ctrl && k.Meta == c.meta
}

// keyCode prefers the physical code and derives one from the key value when a
// browser does not report it.
func keyCode(k KeyStroke) string {
	if k.Code != "" {
		return k.Code
	}
	key := k.Key
	switch {
	case key == "":
		return ""
	case strings.EqualFold(key, "PrintScreen"), key == "Snapshot":
		return "PrintScreen"
	case key == "F12":
		return "F12"
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		return "Digit" + key
	case len(key) == 1 && isLetter(key[0]):
		return "Key" + strings.ToUpper(key)
	}
	// Shifted digits on US layouts.
	switch key {
	case "#":
		return "Digit3"
	case "$":
		return "Digit4"
	case "%":
		return "Digit5"
	case "^":
		return "Digit6"
	}
	return ""
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
