// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/lectern/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Actions checked by the enforcer.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// ErrNoAdapter is returned by LoadPolicy when the embedded policy is in use.
var ErrNoAdapter = errors.New("no policy adapter configured; using embedded policy")

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath overrides the embedded policy when the file exists.
	PolicyPath string

	// ReloadInterval enables periodic reload of PolicyPath when positive.
	ReloadInterval time.Duration

	// DefaultRole is granted to every authenticated caller in addition to
	// the role in their token.
	DefaultRole string

	// CacheTTL is how long decisions are cached. Zero disables the cache.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns the embedded-policy configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		DefaultRole: "learner",
		CacheTTL:    time.Minute,
	}
}

// Enforcer answers role/path/action questions against the RBAC policy.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer creates an enforcer from config. A nil config uses defaults.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	fromFile := config.PolicyPath != "" && fileExists(config.PolicyPath)
	if fromFile {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(config.PolicyPath))
	} else {
		if config.PolicyPath != "" {
			logging.Warn().Str("path", config.PolicyPath).Msg("Policy file not found, using embedded policy")
		}
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicyText(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{config: config, enforcer: enforcer}
	if fromFile && config.ReloadInterval > 0 {
		enforcer.StartAutoLoadPolicy(config.ReloadInterval)
	}
	if config.CacheTTL > 0 {
		e.cache = newDecisionCache(config.CacheTTL, maxCachedDecisions)
	}
	return e, nil
}

// loadPolicyText adds the p and g lines of a policy CSV.
func loadPolicyText(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce reports whether role may perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(role, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, object, action, allowed)
	}
	return allowed, nil
}

// EnforceRole checks role and then the default role.
func (e *Enforcer) EnforceRole(role, object, action string) (bool, error) {
	if role != "" {
		allowed, err := e.Enforce(role, object, action)
		if err != nil || allowed {
			return allowed, err
		}
	}
	if e.config.DefaultRole == "" || e.config.DefaultRole == role {
		return false, nil
	}
	return e.Enforce(e.config.DefaultRole, object, action)
}

// LoadPolicy reloads the policy file. It returns ErrNoAdapter when the
// embedded policy is in use.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" || !fileExists(e.config.PolicyPath) {
		return ErrNoAdapter
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// Close stops policy auto-reload.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
