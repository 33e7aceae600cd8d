package config

import (
	"errors"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`
	BaseURL  string `mapstructure:"base_url"` // public base URL used to build unsubscribe links
}

// ResendConfig holds credentials and addressing for the Resend API.
type ResendConfig struct {
	APIKey         string `mapstructure:"api_key"`
	AudienceID     string `mapstructure:"audience_id"`
	BaseURL        string `mapstructure:"base_url"`
	From           string `mapstructure:"from"`            // e.g., "Yoruba Proverbs <proverbs@example.com>"
	DailyRecipient string `mapstructure:"daily_recipient"` // recipient of the daily proverb email
	Timeout        string `mapstructure:"timeout"`         // duration string, e.g., "10s"
}

// AdminConfig guards the /admin broadcast endpoints.
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// RateLimitConfig controls the subscribe-endpoint throttle.
type RateLimitConfig struct {
	Window   string `mapstructure:"window"` // duration string, e.g., "15m"
	Limit    int    `mapstructure:"limit"`  // admitted calls per identity per window
	UseRedis bool   `mapstructure:"use_redis"`
}

// RedisConfig holds redis connection settings for the rate-limit window store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ScheduleConfig defines the recurring campaign triggers.
type ScheduleConfig struct {
	Timezone   string `mapstructure:"timezone"`    // IANA zone the cron specs are evaluated in
	WeeklySpec string `mapstructure:"weekly_spec"` // cron spec for the weekly broadcast
	DailySpec  string `mapstructure:"daily_spec"`  // cron spec for the daily proverb email
}

// TelegramConfig enables the optional subscribe usage ping.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Config is the top-level configuration structure.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Resend    ResendConfig    `mapstructure:"resend"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

// ErrMissingAPIKey indicates the Resend API key is absent; the process cannot start without it.
var ErrMissingAPIKey = errors.New("resend.api_key is required (set RESEND_API_KEY)")

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Port == 0 {
		c.App.Port = 3000
	}
	if c.App.BaseURL == "" {
		c.App.BaseURL = "http://localhost:3000"
	}
	if c.Resend.BaseURL == "" {
		c.Resend.BaseURL = "https://api.resend.com"
	}
	if c.Resend.From == "" {
		c.Resend.From = "Yoruba Proverbs <proverbs@yorubaproverbs.com>"
	}
	if c.Resend.Timeout == "" {
		c.Resend.Timeout = "10s"
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "15m"
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 5
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Africa/Lagos"
	}
	if c.Schedule.WeeklySpec == "" {
		c.Schedule.WeeklySpec = "0 9 * * 6" // Saturday 09:00
	}
	if c.Schedule.DailySpec == "" {
		c.Schedule.DailySpec = "0 8 * * *" // every day 08:00
	}
}

// Validate reports fatal configuration problems. Optional settings
// (audience id, admin key, daily recipient) degrade at call time instead.
func (c *Config) Validate() error {
	if c.Resend.APIKey == "" {
		return ErrMissingAPIKey
	}
	if _, err := time.ParseDuration(c.Resend.Timeout); err != nil {
		return errors.New("resend.timeout is not a valid duration")
	}
	if _, err := time.ParseDuration(c.RateLimit.Window); err != nil {
		return errors.New("ratelimit.window is not a valid duration")
	}
	return nil
}

// Warnings lists non-fatal configuration gaps worth logging at startup.
func (c *Config) Warnings() []string {
	var ws []string
	if c.Resend.AudienceID == "" {
		ws = append(ws, "resend.audience_id is not set; subscribe/unsubscribe and broadcasts will fail until it is configured")
	}
	if c.Admin.APIKey == "" {
		ws = append(ws, "admin.api_key is not set; /admin endpoints will reject all requests")
	}
	if c.Resend.DailyRecipient == "" {
		ws = append(ws, "resend.daily_recipient is not set; the daily proverb email is disabled")
	}
	return ws
}
