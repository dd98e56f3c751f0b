package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Clock and generator
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqGenerator struct {
	n int
}

func (g *seqGenerator) Token() (string, error) {
	g.n++
	return fmt.Sprintf("token-%02d", g.n), nil
}

func (g *seqGenerator) Credential() (string, error) {
	g.n++
	return fmt.Sprintf("cred-%02d!", g.n), nil
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) byKind(kind domain.NotificationKind) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

type memState struct {
	members   map[string]domain.MemberAccount
	operators map[string]domain.OperatorAccount
	requests  []domain.RegistrationRequest
	content   map[domain.ContentKey]domain.ContentEntry
	nextID    int64
}

func (s memState) clone() memState {
	c := memState{
		members:   make(map[string]domain.MemberAccount, len(s.members)),
		operators: make(map[string]domain.OperatorAccount, len(s.operators)),
		requests:  append([]domain.RegistrationRequest(nil), s.requests...),
		content:   make(map[domain.ContentKey]domain.ContentEntry, len(s.content)),
		nextID:    s.nextID,
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.operators {
		c.operators[k] = v
	}
	for k, v := range s.content {
		c.content[k] = v
	}
	return c
}

type memStore struct {
	mu    sync.Mutex
	state memState

	// failContentAfter makes the nth content upsert of a call fail when > 0.
	failContentAfter int
	contentWrites    int
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		members:   map[string]domain.MemberAccount{},
		operators: map[string]domain.OperatorAccount{},
		content:   map[domain.ContentKey]domain.ContentEntry{},
	}}
}

func (s *memStore) Members() ports.MemberRepository             { return memMembers{s} }
func (s *memStore) Operators() ports.OperatorRepository         { return memOperators{s} }
func (s *memStore) Registrations() ports.RegistrationRepository { return memRegistrations{s} }
func (s *memStore) Content() ports.ContentRepository            { return memContent{s} }

func (s *memStore) WithinTx(_ context.Context, fn func(uow ports.UnitOfWork) error) error {
	s.mu.Lock()
	snapshot := s.state.clone()
	s.contentWrites = 0
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

type memMembers struct{ s *memStore }

func (r memMembers) Create(_ context.Context, acct *domain.MemberAccount) (*domain.MemberAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.members[acct.Email]; ok {
		return nil, domain.ErrAccountExists
	}
	r.s.state.nextID++
	c := *acct
	c.ID = r.s.state.nextID
	r.s.state.members[c.Email] = c
	return &c, nil
}

func (r memMembers) FindByEmail(_ context.Context, email string) (*domain.MemberAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.state.members[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &m, nil
}

func (r memMembers) SetSession(_ context.Context, email, token string, issuedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.state.members[email]
	if !ok {
		return domain.ErrAccountNotFound
	}
	m.SessionToken, m.SessionIssuedAt, m.LastLogin = token, issuedAt, issuedAt
	r.s.state.members[email] = m
	return nil
}

func (r memMembers) FindBySession(_ context.Context, token string, cutoff time.Time) (*domain.MemberAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.state.members {
		if m.SessionToken == token && m.Verified && m.SessionIssuedAt.After(cutoff) {
			return &m, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r memMembers) MarkVerified(_ context.Context, token string, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, m := range r.s.state.members {
		if m.VerificationToken == token && !m.Verified && m.VerificationIssuedAt.After(cutoff) {
			m.Verified = true
			r.s.state.members[k] = m
			n++
		}
	}
	return n, nil
}

type memOperators struct{ s *memStore }

func (r memOperators) Upsert(_ context.Context, email, hash string, now time.Time) (*domain.OperatorAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	op, ok := r.s.state.operators[email]
	if !ok {
		r.s.state.nextID++
		op = domain.OperatorAccount{ID: r.s.state.nextID, Email: email, CreatedAt: now}
	}
	op.CredentialHash = hash
	op.UpdatedAt = now
	r.s.state.operators[email] = op
	return &op, nil
}

func (r memOperators) FindByEmail(_ context.Context, email string) (*domain.OperatorAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	op, ok := r.s.state.operators[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &op, nil
}

func (r memOperators) SetSession(_ context.Context, email, token string, issuedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	op, ok := r.s.state.operators[email]
	if !ok {
		return domain.ErrAccountNotFound
	}
	op.SessionToken, op.SessionIssuedAt, op.LastLogin = token, issuedAt, issuedAt
	r.s.state.operators[email] = op
	return nil
}

func (r memOperators) FindBySession(_ context.Context, token string, cutoff time.Time) (*domain.OperatorAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, op := range r.s.state.operators {
		if op.SessionToken == token && op.SessionIssuedAt.After(cutoff) {
			return &op, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

type memRegistrations struct{ s *memStore }

func (r memRegistrations) LockSubmissions(context.Context) error { return nil }

func (r memRegistrations) FindDuplicate(_ context.Context, id domain.Identifier, contact, email string) (*domain.RegistrationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.state.requests {
		if strings.EqualFold(string(req.Identifier), string(id)) ||
			strings.EqualFold(req.ContactHandle, contact) ||
			strings.EqualFold(req.Email, email) {
			c := req
			return &c, nil
		}
	}
	return nil, domain.ErrRegistrationNotFound
}

func (r memRegistrations) Create(_ context.Context, req *domain.RegistrationRequest) (*domain.RegistrationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.nextID++
	c := *req
	c.ID = r.s.state.nextID
	r.s.state.requests = append(r.s.state.requests, c)
	return &c, nil
}

func (r memRegistrations) FindPendingByHandles(_ context.Context, handles []string) ([]*domain.RegistrationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.RegistrationRequest
	for _, req := range r.s.state.requests {
		if req.Status != domain.StatusPending {
			continue
		}
		for _, comp := range req.Identifier.Components() {
			hit := false
			for _, h := range handles {
				if strings.EqualFold(strings.TrimSpace(comp), h) {
					hit = true
				}
			}
			if hit {
				c := req
				out = append(out, &c)
				break
			}
		}
	}
	return out, nil
}

func (r memRegistrations) FindPendingByIdentifier(_ context.Context, id domain.Identifier) (*domain.RegistrationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.state.requests {
		if req.Status == domain.StatusPending && req.Identifier == id {
			c := req
			return &c, nil
		}
	}
	return nil, domain.ErrRegistrationNotFound
}

func (r memRegistrations) SaveDecision(_ context.Context, req *domain.RegistrationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.state.requests {
		if r.s.state.requests[i].ID == req.ID {
			r.s.state.requests[i] = *req
			return nil
		}
	}
	return domain.ErrRegistrationNotFound
}

func (r memRegistrations) List(_ context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	status, only := filter.Status()
	out := []*domain.RegistrationRequest{}
	for _, req := range r.s.state.requests {
		if only && req.Status != status {
			continue
		}
		c := req
		out = append(out, &c)
	}
	return out, nil
}

type memContent struct{ s *memStore }

func (r memContent) Get(_ context.Context, page, lang string) ([]domain.ContentEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ContentEntry
	for k, e := range r.s.state.content {
		if k.PageKey == page && k.LanguageCode == lang {
			out = append(out, e)
		}
	}
	return out, nil
}

var errContentWrite = errors.New("content write failed")

func (r memContent) Upsert(_ context.Context, e domain.ContentEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.contentWrites++
	if r.s.failContentAfter > 0 && r.s.contentWrites >= r.s.failContentAfter {
		return errContentWrite
	}
	r.s.state.content[e.ContentKey] = e
	return nil
}

func (s *memStore) contentRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.content)
}

func (s *memStore) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.requests)
}
