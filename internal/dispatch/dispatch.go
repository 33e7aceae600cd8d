// Package dispatch sends one rendered proverb email per recipient from an
// ordered list, pacing sends to respect the provider's throughput limits.
package dispatch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/resend"
	"yoruba-proverbs/internal/templates"
)

// Sender sends one transactional email. *resend.Client satisfies it.
type Sender interface {
	SendEmail(ctx context.Context, p resend.SendEmailParams) (string, error)
}

// Recipient is one (email, name) pair in a batch.
type Recipient struct {
	Email string
	Name  string
}

// Tally counts per-recipient outcomes of one batch.
type Tally struct {
	Sent   int
	Failed int
}

// Dispatcher batches proverb emails with a fixed inter-send delay.
type Dispatcher struct {
	sender  Sender
	from    string
	baseURL string
	delay   time.Duration
}

// New creates a Dispatcher. A non-positive delay selects the 200ms default.
func New(sender Sender, from, baseURL string, delay time.Duration) *Dispatcher {
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Dispatcher{
		sender:  sender,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		delay:   delay,
	}
}

// SendAll sends the proverb to every recipient strictly in order. A single
// recipient's failure is counted and the batch continues; the batch itself
// never fails. Context cancellation stops between sends and returns the
// tally so far.
func (d *Dispatcher) SendAll(ctx context.Context, recipients []Recipient, p proverb.Proverb) Tally {
	var tally Tally
	for i, r := range recipients {
		if err := d.sendOne(ctx, r, p); err != nil {
			slog.Warn("dispatch: send failed", "email", r.Email, "err", err)
			tally.Failed++
		} else {
			tally.Sent++
		}
		if i == len(recipients)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return tally
		case <-time.After(d.delay):
		}
	}
	return tally
}

func (d *Dispatcher) sendOne(ctx context.Context, r Recipient, p proverb.Proverb) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = "Subscriber"
	}
	html, err := templates.Render("weekly-proverb", map[string]string{
		"name":           name,
		"proverb":        p.Proverb,
		"translation":    p.Translation,
		"wisdom":         p.Wisdom,
		"unsubscribeUrl": d.baseURL + "/unsubscribe?email=" + url.QueryEscape(r.Email),
	})
	if err != nil {
		return err
	}
	_, err = d.sender.SendEmail(ctx, resend.SendEmailParams{
		From:    d.from,
		To:      []string{r.Email},
		Subject: "Your Weekly Yoruba Proverb - Saturday Wisdom",
		HTML:    html,
	})
	return err
}
