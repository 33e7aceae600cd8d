package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"yoruba-proverbs/internal/broadcast"
	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/resend"
	"yoruba-proverbs/internal/templates"

	"github.com/robfig/cron/v3"
)

// EmailSender sends one transactional email. *resend.Client satisfies it.
type EmailSender interface {
	SendEmail(ctx context.Context, p resend.SendEmailParams) (string, error)
}

// CampaignScheduler fires the recurring email jobs: the weekly audience
// broadcast and the daily single-recipient proverb. Both run on cron specs
// evaluated in a configured timezone, and a failing run never stops the
// schedule.
type CampaignScheduler struct {
	Broadcasts     *broadcast.Controller
	Sender         EmailSender
	Proverbs       *proverb.Collection
	From           string
	DailyRecipient string
	BaseURL        string
	Timezone       string
	WeeklySpec     string
	DailySpec      string
}

// Start runs the cron loop until ctx is cancelled, then waits for any
// in-flight job to finish.
func (s *CampaignScheduler) Start(ctx context.Context) error {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("load schedule timezone %q: %w", s.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.WeeklySpec, func() { s.runWeekly(ctx) }); err != nil {
		return fmt.Errorf("register weekly schedule %q: %w", s.WeeklySpec, err)
	}
	if _, err := c.AddFunc(s.DailySpec, func() { s.runDaily(ctx) }); err != nil {
		return fmt.Errorf("register daily schedule %q: %w", s.DailySpec, err)
	}

	slog.Info("scheduler: started",
		"timezone", s.Timezone, "weekly", s.WeeklySpec, "daily", s.DailySpec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// runWeekly creates the weekly broadcast from a random proverb and sends it
// immediately.
func (s *CampaignScheduler) runWeekly(ctx context.Context) {
	p := s.Proverbs.Random()
	id, err := s.Broadcasts.CreateWeekly(ctx, p)
	if err != nil {
		slog.Error("scheduler: weekly broadcast create failed", "err", err)
		return
	}
	if err := s.Broadcasts.Send(ctx, id, ""); err != nil {
		slog.Error("scheduler: weekly broadcast send failed", "id", id, "err", err)
		return
	}
	slog.Info("scheduler: weekly broadcast sent", "id", id, "proverb_id", p.ID)
}

// runDaily sends one proverb email to the configured recipient. A missing
// recipient skips the run rather than erroring every day.
func (s *CampaignScheduler) runDaily(ctx context.Context) {
	if s.DailyRecipient == "" {
		slog.Warn("scheduler: daily proverb skipped, no recipient configured")
		return
	}
	p := s.Proverbs.Random()
	unsubscribe := strings.TrimRight(s.BaseURL, "/") + "/unsubscribe?email=" + url.QueryEscape(s.DailyRecipient)
	html, err := templates.Render("weekly-proverb", map[string]string{
		"name":           "Subscriber",
		"proverb":        p.Proverb,
		"translation":    p.Translation,
		"wisdom":         p.Wisdom,
		"unsubscribeUrl": unsubscribe,
	})
	if err != nil {
		slog.Error("scheduler: daily proverb render failed", "err", err)
		return
	}
	if _, err := s.Sender.SendEmail(ctx, resend.SendEmailParams{
		From:    s.From,
		To:      []string{s.DailyRecipient},
		Subject: "Your Daily Yoruba Proverb",
		HTML:    html,
	}); err != nil {
		slog.Error("scheduler: daily proverb send failed", "err", err)
		return
	}
	slog.Info("scheduler: daily proverb sent", "proverb_id", p.ID)
}
