// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import "testing"

func TestMatchCombo(t *testing.T) {
	tests := []struct {
		name string
		key  KeyStroke
		want ComboKind
	}{
		{"print screen", KeyStroke{Code: "PrintScreen"}, ComboScreenshot},
		{"alt print screen", KeyStroke{Code: "PrintScreen", Alt: true}, ComboScreenshot},
		{"ctrl print screen", KeyStroke{Code: "PrintScreen", Ctrl: true}, ComboScreenshot},
		{"win shift s", KeyStroke{Code: "KeyS", Meta: true, Shift: true}, ComboScreenshot},
		{"win g", KeyStroke{Code: "KeyG", Meta: true}, ComboScreenshot},
		{"cmd shift 3", KeyStroke{Code: "Digit3", Meta: true, Shift: true}, ComboScreenshot},
		{"cmd shift 4", KeyStroke{Code: "Digit4", Meta: true, Shift: true}, ComboScreenshot},
		{"cmd shift 5", KeyStroke{Code: "Digit5", Meta: true, Shift: true}, ComboScreenshot},
		{"ctrl shift s", KeyStroke{Code: "KeyS", Ctrl: true, Shift: true}, ComboScreenshot},
		{"f12", KeyStroke{Code: "F12"}, ComboDevTools},
		{"ctrl shift i", KeyStroke{Code: "KeyI", Ctrl: true, Shift: true}, ComboDevTools},
		{"cmd shift j", KeyStroke{Code: "KeyJ", Meta: true, Shift: true}, ComboDevTools},
		{"ctrl shift c", KeyStroke{Code: "KeyC", Ctrl: true, Shift: true}, ComboDevTools},

		{"plain s", KeyStroke{Code: "KeyS"}, ComboNone},
		{"ctrl s", KeyStroke{Code: "KeyS", Ctrl: true}, ComboNone},
		{"ctrl c", KeyStroke{Code: "KeyC", Ctrl: true}, ComboNone},
		{"ctrl meta shift i", KeyStroke{Code: "KeyI", Ctrl: true, Meta: true, Shift: true}, ComboNone},
		{"cmd shift 3 with alt", KeyStroke{Code: "Digit3", Meta: true, Shift: true, Alt: true}, ComboNone},
		{"empty", KeyStroke{}, ComboNone},

		{"key fallback ctrl shift s", KeyStroke{Key: "S", Ctrl: true, Shift: true}, ComboScreenshot},
		{"key fallback shifted digit", KeyStroke{Key: "#", Meta: true, Shift: true}, ComboScreenshot},
		{"key fallback print screen", KeyStroke{Key: "PrintScreen"}, ComboScreenshot},
		{"key fallback f12", KeyStroke{Key: "F12"}, ComboDevTools},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := MatchCombo(tt.key)
			if got != tt.want {
				t.Errorf("MatchCombo(%+v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
