package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
	"github.com/webster-hq/webster/internal/metrics"
)

const maxReasonLength = 1000

// RegistrationService runs the membership request workflow. Notifications are
// sent only after the state change has been committed.
type RegistrationService struct {
	store    ports.Store
	notifier ports.Notifier
	admins   []string
	now      func() time.Time
	log      zerolog.Logger
}

func NewRegistrationService(store ports.Store, notifier ports.Notifier, adminEmails []string, now func() time.Time, log zerolog.Logger) *RegistrationService {
	if now == nil {
		now = time.Now
	}
	return &RegistrationService{
		store:    store,
		notifier: notifier,
		admins:   adminEmails,
		now:      now,
		log:      log,
	}
}

// Submit stores a pending request unless any existing request shares its
// identifier, contact handle or email.
func (s *RegistrationService) Submit(ctx context.Context, in ports.SubmitInput) (*domain.RegistrationRequest, error) {
	id, err := domain.ParseIdentifier(in.Identifier)
	if err != nil {
		return nil, err
	}
	req := &domain.RegistrationRequest{
		Identifier:       id,
		ContactHandle:    strings.TrimSpace(in.ContactHandle),
		SecondaryContact: strings.TrimSpace(in.SecondaryContact),
		Email:            normalizeEmail(in.Email),
		Category:         strings.TrimSpace(in.Category),
		Status:           domain.StatusPending,
		CreatedAt:        s.now().UTC(),
	}
	switch {
	case req.ContactHandle == "":
		return nil, domain.Invalid("discord", "is required")
	case req.Email == "":
		return nil, domain.Invalid("email", "is required")
	case req.Category == "":
		return nil, domain.Invalid("type", "is required")
	}

	var created *domain.RegistrationRequest
	err = s.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
		regs := uow.Registrations()
		if err := regs.LockSubmissions(ctx); err != nil {
			return err
		}
		dup, err := regs.FindDuplicate(ctx, req.Identifier, req.ContactHandle, req.Email)
		switch {
		case err == nil:
			return dup.Status.ConflictError()
		case !errors.Is(err, domain.ErrRegistrationNotFound):
			return err
		}
		created, err = regs.Create(ctx, req)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("submit registration: %w", err)
	}

	metrics.RegistrationsSubmittedTotal.WithLabelValues(created.Category).Inc()
	s.log.Info().Int64("request_id", created.ID).Str("ign", string(created.Identifier)).Msg("registration submitted")

	data := requestData(created)
	notify(ctx, s.notifier, s.log, created.CreatedAt, domain.NotifyRegistration, created.Email, data)
	for _, admin := range s.admins {
		notify(ctx, s.notifier, s.log, created.CreatedAt, domain.NotifyAdminRegistration, admin, data)
	}
	return created, nil
}

// Accept moves the oldest pending request sharing any handle with identifier
// (ignoring case) to accepted. Once accepted, the same call reports
// domain.ErrRegistrationNotFound.
func (s *RegistrationService) Accept(ctx context.Context, identifier, actor string) (domain.Acceptance, error) {
	query, err := domain.ParseIdentifier(identifier)
	if err != nil {
		return domain.Acceptance{}, err
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return domain.Acceptance{}, domain.Invalid("acceptedBy", "is required")
	}

	var result domain.Acceptance
	err = s.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
		regs := uow.Registrations()
		candidates, err := regs.FindPendingByHandles(ctx, query.Handles())
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if matched := c.Identifier.Match(query); len(matched) > 0 {
				if err := c.Apply(domain.Decision{Status: domain.StatusAccepted, Actor: actor, At: s.now().UTC()}); err != nil {
					return err
				}
				if err := regs.SaveDecision(ctx, c); err != nil {
					return err
				}
				result = domain.Acceptance{Request: *c, Matched: matched}
				return nil
			}
		}
		return domain.ErrRegistrationNotFound
	})
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			return domain.Acceptance{}, err
		}
		return domain.Acceptance{}, fmt.Errorf("accept registration: %w", err)
	}

	metrics.RegistrationDecisionsTotal.WithLabelValues(string(domain.StatusAccepted)).Inc()
	s.log.Info().Int64("request_id", result.Request.ID).Strs("matched", result.Matched).Msg("registration accepted")

	notify(ctx, s.notifier, s.log, result.Request.DecidedAt, domain.NotifyAcceptance, result.Request.Email, requestData(&result.Request))
	return result, nil
}

// Deny moves the oldest pending request whose identifier equals identifier
// exactly to denied.
func (s *RegistrationService) Deny(ctx context.Context, identifier, actor, reason string) (*domain.RegistrationRequest, error) {
	id := domain.Identifier(strings.TrimSpace(identifier))
	actor, reason = strings.TrimSpace(actor), strings.TrimSpace(reason)
	switch {
	case id == "":
		return nil, domain.Invalid("ign", "is required")
	case actor == "":
		return nil, domain.Invalid("deniedBy", "is required")
	case reason == "":
		return nil, domain.Invalid("reason", "is required")
	case len(reason) > maxReasonLength:
		return nil, domain.Invalid("reason", "must be at most 1000 characters")
	}

	var denied *domain.RegistrationRequest
	err := s.store.WithinTx(ctx, func(uow ports.UnitOfWork) error {
		regs := uow.Registrations()
		r, err := regs.FindPendingByIdentifier(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Apply(domain.Decision{Status: domain.StatusDenied, Actor: actor, Reason: reason, At: s.now().UTC()}); err != nil {
			return err
		}
		if err := regs.SaveDecision(ctx, r); err != nil {
			return err
		}
		denied = r
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("deny registration: %w", err)
	}

	metrics.RegistrationDecisionsTotal.WithLabelValues(string(domain.StatusDenied)).Inc()
	s.log.Info().Int64("request_id", denied.ID).Msg("registration denied")

	data := requestData(denied)
	data["reason"] = denied.DecisionReason
	notify(ctx, s.notifier, s.log, denied.DecidedAt, domain.NotifyDenial, denied.Email, data)
	return denied, nil
}

// List returns requests matching filter in insertion order.
func (s *RegistrationService) List(ctx context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error) {
	if _, err := domain.ParseStatusFilter(string(filter)); err != nil {
		return nil, err
	}
	out, err := s.store.Registrations().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

func requestData(r *domain.RegistrationRequest) map[string]string {
	return map[string]string{
		"ign":      string(r.Identifier),
		"java":     r.Identifier.Java(),
		"bedrock":  r.Identifier.Bedrock(),
		"discord":  r.ContactHandle,
		"telegram": r.SecondaryContact,
		"email":    r.Email,
		"type":     r.Category,
	}
}
