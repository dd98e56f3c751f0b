package domain

import (
	"errors"
	"strings"
	"time"
)

// RegistrationStatus represents the lifecycle state of a membership request.
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusAccepted RegistrationStatus = "accepted"
	StatusDenied   RegistrationStatus = "denied"
)

// validTransitions defines the allowed state machine transitions. Accepted
// and denied are terminal.
var validTransitions = map[RegistrationStatus][]RegistrationStatus{
	StatusPending: {StatusAccepted, StatusDenied},
}

var ErrInvalidTransition = errors.New("invalid status transition")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RegistrationStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// ParseRegistrationStatus converts a stored status string.
func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	switch RegistrationStatus(s) {
	case StatusPending, StatusAccepted, StatusDenied:
		return RegistrationStatus(s), nil
	}
	return "", Invalid("status", "must be one of pending, accepted, denied")
}

// ConflictError returns the conflict reported to a visitor who re-submits
// while a request in status s exists.
func (s RegistrationStatus) ConflictError() error {
	switch s {
	case StatusAccepted:
		return ErrRegistrationAccepted
	case StatusDenied:
		return ErrRegistrationDenied
	default:
		return ErrRegistrationPending
	}
}

// StatusFilter selects requests for listing. The zero value is invalid.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterPending  StatusFilter = StatusFilter(StatusPending)
	FilterAccepted StatusFilter = StatusFilter(StatusAccepted)
	FilterDenied   StatusFilter = StatusFilter(StatusDenied)
)

// ParseStatusFilter parses a listing filter, case-insensitively.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterPending, FilterAccepted, FilterDenied:
		return f, nil
	}
	return "", Invalid("type", "must be one of all, pending, accepted, denied")
}

// Status returns the status f selects and false for FilterAll.
func (f StatusFilter) Status() (RegistrationStatus, bool) {
	if f == FilterAll {
		return "", false
	}
	return RegistrationStatus(f), true
}

// IdentifierDelimiter joins the Java and Bedrock handles of an identifier.
const IdentifierDelimiter = "[]"

// absentHandle marks a deliberately empty Bedrock handle.
const absentHandle = "none"

// maxHandleLength bounds each identifier component.
const maxHandleLength = 64

// Identifier is a registration key encoding one or two platform handles,
// e.g. "steveo[]Steve_BE".
type Identifier string

// NewIdentifier joins a Java and an optional Bedrock handle.
func NewIdentifier(java, bedrock string) Identifier {
	java, bedrock = strings.TrimSpace(java), strings.TrimSpace(bedrock)
	if bedrock == "" {
		return Identifier(java)
	}
	return Identifier(java + IdentifierDelimiter + bedrock)
}

// ParseIdentifier validates a compound identifier as submitted.
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Invalid("ign", "is required")
	}
	parts := strings.Split(raw, IdentifierDelimiter)
	if len(parts) > 2 {
		return "", Invalid("ign", "may contain at most two handles")
	}
	nonEmpty := 0
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > maxHandleLength {
			return "", Invalid("ign", "handle is too long")
		}
		if p != "" && !(i == 1 && strings.EqualFold(p, absentHandle)) {
			nonEmpty++
		}
		parts[i] = p
	}
	if nonEmpty == 0 {
		return "", Invalid("ign", "must contain a handle")
	}
	return Identifier(strings.Join(parts, IdentifierDelimiter)), nil
}

// Components returns the raw handle slots: the Java handle first, then the
// Bedrock handle when the delimiter is present.
func (id Identifier) Components() []string {
	return strings.Split(string(id), IdentifierDelimiter)
}

// Java returns the first handle.
func (id Identifier) Java() string {
	return strings.TrimSpace(id.Components()[0])
}

// Bedrock returns the second handle, or "" when absent or marked "none".
func (id Identifier) Bedrock() string {
	c := id.Components()
	if len(c) < 2 {
		return ""
	}
	b := strings.TrimSpace(c[1])
	if strings.EqualFold(b, absentHandle) {
		return ""
	}
	return b
}

// Handles returns the non-empty handles in slot order.
func (id Identifier) Handles() []string {
	var out []string
	if j := id.Java(); j != "" {
		out = append(out, j)
	}
	if b := id.Bedrock(); b != "" {
		out = append(out, b)
	}
	return out
}

// Match returns the stored handles of id that equal any handle of query,
// ignoring case. An empty result means no match.
func (id Identifier) Match(query Identifier) []string {
	var matched []string
	for _, h := range id.Handles() {
		for _, q := range query.Handles() {
			if strings.EqualFold(h, q) {
				matched = append(matched, h)
				break
			}
		}
	}
	return matched
}

// Decision records who moved a request out of pending, and why.
type Decision struct {
	Status RegistrationStatus
	Actor  string
	Reason string
	At     time.Time
}

// RegistrationRequest is a visitor's membership request.
type RegistrationRequest struct {
	ID               int64
	Identifier       Identifier
	ContactHandle    string
	SecondaryContact string
	Email            string
	Category         string
	Status           RegistrationStatus
	DecisionActor    string
	DecisionReason   string
	DecidedAt        time.Time
	CreatedAt        time.Time
}

// Apply validates and applies d to r. Reason is kept only for denials.
func (r *RegistrationRequest) Apply(d Decision) error {
	if !r.Status.CanTransitionTo(d.Status) {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(d.Actor) == "" {
		return Invalid("actor", "is required")
	}
	if d.Status == StatusDenied && strings.TrimSpace(d.Reason) == "" {
		return Invalid("reason", "is required")
	}
	r.Status = d.Status
	r.DecisionActor = d.Actor
	r.DecidedAt = d.At
	r.DecisionReason = ""
	if d.Status == StatusDenied {
		r.DecisionReason = d.Reason
	}
	return nil
}

// Decision returns the decision recorded on r, or false while pending.
func (r *RegistrationRequest) Decision() (Decision, bool) {
	if r.Status == StatusPending {
		return Decision{}, false
	}
	return Decision{Status: r.Status, Actor: r.DecisionActor, Reason: r.DecisionReason, At: r.DecidedAt}, true
}

// Acceptance is the outcome of accepting a request: the stored request plus
// the handles that matched the operator's query, which drive allow-listing.
type Acceptance struct {
	Request RegistrationRequest
	Matched []string
}
