package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Transport selects how the hub talks to a node.
type Transport string

const (
	TransportHTTP   Transport = "http"
	TransportDocker Transport = "docker" // stub: status operations report unsupported
)

// AuthType enumerates the supported node auth variants.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
)

// AuthConfig is a closed tagged union of node authentication settings.
// Only "none" and "bearer" are accepted; legacy basic/username/password
// shapes are rejected at decode time. A bare {"token": "..."} payload is
// losslessly convertible to bearer and accepted.
type AuthConfig struct {
	Type  AuthType `json:"type"`
	Token string   `json:"token,omitempty"`
}

// UnmarshalJSON enforces the closed union at the wire boundary.
func (a *AuthConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string  `json:"type"`
		Token    string  `json:"token"`
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if raw.Username != nil || raw.Password != nil || raw.Type == "basic" {
		return fmt.Errorf("auth: legacy basic credentials are not supported; use {\"type\":\"bearer\",\"token\":...}")
	}

	switch raw.Type {
	case string(AuthNone):
		if raw.Token != "" {
			return fmt.Errorf("auth: token must not be set when type is \"none\"")
		}
		*a = AuthConfig{Type: AuthNone}
	case string(AuthBearer):
		if raw.Token == "" {
			return fmt.Errorf("auth: bearer auth requires a non-empty token")
		}
		*a = AuthConfig{Type: AuthBearer, Token: raw.Token}
	case "":
		// Bare {"token": "..."} converts losslessly to bearer.
		if raw.Token != "" {
			*a = AuthConfig{Type: AuthBearer, Token: raw.Token}
			return nil
		}
		*a = AuthConfig{Type: AuthNone}
	default:
		return fmt.Errorf("auth: unsupported type %q (must be \"none\" or \"bearer\")", raw.Type)
	}
	return nil
}

// Validate checks the union invariants for records built in code
// (the JSON path already enforces them during decode).
func (a AuthConfig) Validate() error {
	switch a.Type {
	case AuthNone:
		if a.Token != "" {
			return fmt.Errorf("token must not be set when type is \"none\"")
		}
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("bearer auth requires a non-empty token")
		}
	default:
		return fmt.Errorf("unsupported type %q", a.Type)
	}
	return nil
}

// Node is a registered remote camera instance tracked by the hub.
type Node struct {
	ID           string            `json:"id" example:"cam1"`
	Name         string            `json:"name" example:"Front door"`
	BaseURL      string            `json:"base_url" example:"http://cam1.lan:8000"`
	Auth         AuthConfig        `json:"auth"`
	Labels       map[string]string `json:"labels,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Transport    Transport         `json:"transport" example:"http"`
	CreatedAt    time.Time         `json:"created_at"`
	LastSeen     time.Time         `json:"last_seen"`
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationErrors aggregates field-level validation failures.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Reason
	}
	return "invalid node: " + strings.Join(parts, "; ")
}

// Fields returns the failures as a details map for error envelopes.
func (v ValidationErrors) Fields() map[string]any {
	m := make(map[string]any, len(v))
	for _, fe := range v {
		m[fe.Field] = fe.Reason
	}
	return m
}

// Normalize canonicalizes derived fields: trims the base URL, defaults
// the transport to http, and sorts/dedupes capabilities.
func (n *Node) Normalize() {
	n.BaseURL = strings.TrimRight(strings.TrimSpace(n.BaseURL), "/")
	if n.Transport == "" {
		n.Transport = TransportHTTP
	}
	if n.Auth.Type == "" {
		n.Auth.Type = AuthNone
	}
	if len(n.Capabilities) > 0 {
		seen := make(map[string]struct{}, len(n.Capabilities))
		caps := n.Capabilities[:0]
		for _, c := range n.Capabilities {
			if _, dup := seen[c]; dup || c == "" {
				continue
			}
			seen[c] = struct{}{}
			caps = append(caps, c)
		}
		sort.Strings(caps)
		n.Capabilities = caps
	}
}

// Validate checks the data-model invariants. Returns ValidationErrors
// listing every violated field, or nil when the record is valid.
func (n *Node) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(n.ID) == "" {
		errs = append(errs, FieldError{Field: "id", Reason: "must not be empty"})
	}
	if strings.TrimSpace(n.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Reason: "must not be empty"})
	}

	if n.BaseURL == "" {
		errs = append(errs, FieldError{Field: "base_url", Reason: "must not be empty"})
	} else if u, err := url.Parse(n.BaseURL); err != nil {
		errs = append(errs, FieldError{Field: "base_url", Reason: "not a valid URL"})
	} else {
		if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, FieldError{Field: "base_url", Reason: fmt.Sprintf("scheme %q not allowed (http or https only)", u.Scheme)})
		}
		if u.Host == "" {
			errs = append(errs, FieldError{Field: "base_url", Reason: "missing host"})
		}
	}

	if err := n.Auth.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "auth", Reason: err.Error()})
	}

	switch n.Transport {
	case TransportHTTP, TransportDocker:
	default:
		errs = append(errs, FieldError{Field: "transport", Reason: fmt.Sprintf("unsupported transport %q", n.Transport)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Host returns the host (without port) of the node's base URL.
func (n *Node) Host() string {
	u, err := url.Parse(n.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// HasCapability reports whether the node declares the given capability.
func (n *Node) HasCapability(c string) bool {
	for _, cap := range n.Capabilities {
		if cap == c {
			return true
		}
	}
	return false
}
