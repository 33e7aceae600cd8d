// Package subscription orchestrates the subscriber lifecycle against the
// external contact store: Unknown → Active → Inactive → Active.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"

	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/resend"
	"yoruba-proverbs/internal/templates"
)

// ContactStore is the slice of the provider API the manager needs.
// *resend.Client satisfies it.
type ContactStore interface {
	GetContact(ctx context.Context, audienceID, email string) (*resend.Contact, error)
	CreateContact(ctx context.Context, audienceID string, p resend.ContactParams) (string, error)
	UpdateContact(ctx context.Context, audienceID, email string, p resend.ContactParams) error
}

// EmailSender sends one transactional email. *resend.Client satisfies it.
type EmailSender interface {
	SendEmail(ctx context.Context, p resend.SendEmailParams) (string, error)
}

// Outcome classifies a successful subscribe call.
type Outcome string

const (
	OutcomeSubscribed        Outcome = "subscribed"
	OutcomeResubscribed      Outcome = "resubscribed"
	OutcomeAlreadySubscribed Outcome = "already_subscribed"
)

// Result is the successful return of Subscribe.
type Result struct {
	Outcome     Outcome
	WelcomeSent bool
	Warning     string // set when the welcome email failed but the contact was created
}

// ValidationError reports malformed input with per-field messages. It is
// returned before any external call is made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ErrAudienceNotConfigured indicates the audience id required for contact
// mutations is absent from configuration.
var ErrAudienceNotConfigured = errors.New("audience id is not configured")

// Manager drives subscribe/unsubscribe against the contact store.
type Manager struct {
	store      ContactStore
	sender     EmailSender
	proverbs   *proverb.Collection
	audienceID string
	from       string
	baseURL    string // public base URL for unsubscribe links
}

// NewManager wires the subscription manager.
func NewManager(store ContactStore, sender EmailSender, proverbs *proverb.Collection, audienceID, from, baseURL string) *Manager {
	return &Manager{
		store:      store,
		sender:     sender,
		proverbs:   proverbs,
		audienceID: audienceID,
		from:       from,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Subscribe reconciles one subscribe request against the contact store.
// The existence check before create keeps the operation idempotent: the
// provider has no clean upsert, so a blind create on an existing inactive
// contact would duplicate or error.
func (m *Manager) Subscribe(ctx context.Context, email, name string) (Result, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if verr := validateSubscribe(email, name); verr != nil {
		return Result{}, verr
	}
	if m.audienceID == "" {
		return Result{}, ErrAudienceNotConfigured
	}

	contact, err := m.store.GetContact(ctx, m.audienceID, email)
	switch {
	case err == nil:
		if contact.Unsubscribed {
			if err := m.store.UpdateContact(ctx, m.audienceID, email, resend.ContactParams{
				Unsubscribed: resend.Bool(false),
			}); err != nil {
				return Result{}, fmt.Errorf("reactivate contact: %w", err)
			}
			return Result{Outcome: OutcomeResubscribed}, nil
		}
		return Result{Outcome: OutcomeAlreadySubscribed}, nil
	case errors.Is(err, resend.ErrContactNotFound):
		// fall through to create
	default:
		return Result{}, fmt.Errorf("lookup contact: %w", err)
	}

	_, err = m.store.CreateContact(ctx, m.audienceID, resend.ContactParams{
		Email:        email,
		FirstName:    name,
		Unsubscribed: resend.Bool(false),
	})
	if errors.Is(err, resend.ErrContactExists) {
		// Lost a race with a concurrent subscribe; the provider's uniqueness
		// guarantee resolved it, so report the benign duplicate.
		return Result{Outcome: OutcomeAlreadySubscribed}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("create contact: %w", err)
	}

	res := Result{Outcome: OutcomeSubscribed}
	if err := m.sendWelcome(ctx, email, name); err != nil {
		// The contact record is the durable source of truth; a transient mail
		// failure must not block future campaign delivery.
		slog.Warn("subscription: welcome email failed", "email", email, "err", err)
		res.Warning = "subscribed, but the welcome email could not be delivered"
		return res, nil
	}
	res.WelcomeSent = true
	return res, nil
}

// Unsubscribe marks the contact inactive.
func (m *Manager) Unsubscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Fields: map[string]string{"email": "email is required"}}
	}
	if m.audienceID == "" {
		return ErrAudienceNotConfigured
	}
	if err := m.store.UpdateContact(ctx, m.audienceID, email, resend.ContactParams{
		Unsubscribed: resend.Bool(true),
	}); err != nil {
		return fmt.Errorf("unsubscribe contact: %w", err)
	}
	return nil
}

// UnsubscribeURL builds the per-subscriber unsubscribe link.
func (m *Manager) UnsubscribeURL(email string) string {
	return m.baseURL + "/unsubscribe?email=" + url.QueryEscape(email)
}

func (m *Manager) sendWelcome(ctx context.Context, email, name string) error {
	p := m.proverbs.Random()
	html, err := templates.Render("welcome", map[string]string{
		"name":           name,
		"proverb":        p.Proverb,
		"translation":    p.Translation,
		"wisdom":         p.Wisdom,
		"unsubscribeUrl": m.UnsubscribeURL(email),
	})
	if err != nil {
		return err
	}
	_, err = m.sender.SendEmail(ctx, resend.SendEmailParams{
		From:    m.from,
		To:      []string{email},
		Subject: "Welcome to Yoruba Proverbs!",
		HTML:    html,
	})
	return err
}

func validateSubscribe(email, name string) *ValidationError {
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "email is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields["email"] = "must be a valid email address"
	}
	if name == "" {
		fields["name"] = "name is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
