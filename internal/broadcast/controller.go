// Package broadcast creates and sends the weekly mass-mail campaign through
// the provider's broadcast API.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/resend"
	"yoruba-proverbs/internal/templates"
)

// API is the slice of the provider API the controller needs.
// *resend.Client satisfies it.
type API interface {
	CreateBroadcast(ctx context.Context, p resend.CreateBroadcastParams) (string, error)
	SendBroadcast(ctx context.Context, broadcastID, scheduledAt string) error
}

var (
	// ErrAudienceNotConfigured indicates the target audience id is absent.
	ErrAudienceNotConfigured = errors.New("audience id is not configured")
	// ErrEmptyBroadcastID indicates Send was called without a broadcast id.
	ErrEmptyBroadcastID = errors.New("broadcast id is required")
)

// Resend macros expanded by the provider per recipient at fan-out time. The
// template compiler leaves them untouched because they never match a
// provided key.
const (
	firstNameMacro      = "{{{FIRST_NAME|Subscriber}}}"
	unsubscribeURLMacro = "{{{RESEND_UNSUBSCRIBE_URL}}}"
	weeklySubject       = "Your Weekly Yoruba Proverb - Saturday Wisdom"
	weeklyTemplate      = "weekly-proverb"
)

// Controller drives broadcast creation and delivery.
type Controller struct {
	api        API
	audienceID string
	from       string
}

// NewController wires the broadcast controller.
func NewController(api API, audienceID, from string) *Controller {
	return &Controller{api: api, audienceID: audienceID, from: from}
}

// CreateWeekly renders the weekly proverb body once, with provider macros in
// place of per-recipient values, and creates the broadcast. Returns the
// provider-issued broadcast id.
func (c *Controller) CreateWeekly(ctx context.Context, p proverb.Proverb) (string, error) {
	if c.audienceID == "" {
		return "", ErrAudienceNotConfigured
	}
	html, err := templates.Render(weeklyTemplate, map[string]string{
		"name":           firstNameMacro,
		"proverb":        p.Proverb,
		"translation":    p.Translation,
		"wisdom":         p.Wisdom,
		"unsubscribeUrl": unsubscribeURLMacro,
	})
	if err != nil {
		return "", err
	}
	id, err := c.api.CreateBroadcast(ctx, resend.CreateBroadcastParams{
		AudienceID: c.audienceID,
		From:       c.from,
		Subject:    weeklySubject,
		HTML:       html,
	})
	if err != nil {
		return "", fmt.Errorf("create broadcast: %w", err)
	}
	return id, nil
}

// Send triggers delivery of a created broadcast. scheduledAt, when non-empty,
// is passed through opaquely; its grammar is the provider's concern.
func (c *Controller) Send(ctx context.Context, broadcastID, scheduledAt string) error {
	if strings.TrimSpace(broadcastID) == "" {
		return ErrEmptyBroadcastID
	}
	if err := c.api.SendBroadcast(ctx, broadcastID, scheduledAt); err != nil {
		return fmt.Errorf("send broadcast: %w", err)
	}
	return nil
}
