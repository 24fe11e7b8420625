// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package browser binds the protection engine to the DOM. The js/wasm build
// installs listeners and paints views; the option decoding and stylesheet
// generation below are platform independent.
package browser

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/protect"
)

// MountOptions is the JSON object a page passes to lecternProtect.
type MountOptions struct {
	protect.Options

	// Config is the server-governed protection config, usually fetched from
	// /api/v1/protection/config. Missing fields take defaults.
	Config *protect.Config `json:"config,omitempty"`

	// Endpoint overrides the security log URL.
	Endpoint string `json:"endpoint,omitempty"`

	// Token is an optional bearer token; cookies are used otherwise.
	Token string `json:"token,omitempty"`

	// Root is the CSS selector of the protected region (default body).
	Root string `json:"root,omitempty"`
}

// DecodeOptions parses mount options. An empty payload enables every
// protection with defaults.
func DecodeOptions(data []byte) (MountOptions, error) {
	opts := MountOptions{Options: protect.Options{
		EnableWatermark:         true,
		EnableBlurOnFocusLoss:   true,
		EnableKeyboardBlock:     true,
		EnableContextMenuBlock:  true,
		EnableDevToolsDetection: true,
		EnableDragBlock:         true,
	}, Root: "body"}
	if len(strings.TrimSpace(string(data))) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return MountOptions{}, fmt.Errorf("invalid protection options: %w", err)
	}
	if opts.Root == "" {
		opts.Root = "body"
	}
	return opts, nil
}

// ProtectionConfig returns the effective engine config.
func (o MountOptions) ProtectionConfig() protect.Config {
	if o.Config == nil {
		return protect.DefaultConfig()
	}
	return *o.Config
}

// StyleSheet returns the global rules installed while mounted. Selection is
// always disabled inside the protected region; drag is disabled when blocked.
func StyleSheet(root string, dragBlock bool) string {
	if root == "" {
		root = "body"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s * { -webkit-user-select: none; user-select: none; -webkit-touch-callout: none; }\n", root, root)
	if dragBlock {
		fmt.Fprintf(&b, "%s img, %s video { -webkit-user-drag: none; user-drag: none; pointer-events: auto; }\n", root, root)
	}
	b.WriteString("@media print { body { display: none !important; } }\n")
	return b.String()
}

// OverlayStyle returns the inline style for the lockout overlay.
func OverlayStyle(v protect.Overlay) string {
	if !v.Visible {
		return "display:none"
	}
	return "position:fixed;inset:0;z-index:2147483647;background:#000;color:#fff;" +
		"display:flex;flex-direction:column;align-items:center;justify-content:center;" +
		"font-family:system-ui,sans-serif;text-align:center;padding:2rem"
}

// ContentFilter returns the CSS filter applied to the protected region.
func ContentFilter(v protect.View) string {
	if v.Overlay.Filter != "" {
		return v.Overlay.Filter
	}
	if v.Overlay.Visible {
		return "blur(24px)"
	}
	return ""
}

// MarkStyle returns the inline style for one watermark.
func MarkStyle(m protect.WatermarkMark) string {
	return fmt.Sprintf("position:fixed;left:%.2f%%;top:%.2f%%;transform:rotate(%.1fdeg);opacity:%.3f;"+
		"pointer-events:none;z-index:2147483646;font:600 14px system-ui,sans-serif;color:#888;white-space:nowrap",
		m.X, m.Y, m.Rotation, m.Opacity)
}
