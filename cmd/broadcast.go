package cmd

import (
	"context"
	"fmt"
	"time"

	"yoruba-proverbs/internal/broadcast"
	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/resend"

	"github.com/spf13/cobra"
)

var (
	broadcastSend       bool
	broadcastScheduleAt string
	broadcastProverbID  int
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Create the weekly proverb broadcast",
	Long:  "Create a weekly proverb broadcast for the configured audience, optionally sending or scheduling it in the same run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		proverbs, err := proverb.Load()
		if err != nil {
			return err
		}
		p := proverbs.Random()
		if broadcastProverbID > 0 {
			var ok bool
			if p, ok = proverbs.ByID(broadcastProverbID); !ok {
				return fmt.Errorf("no proverb with id %d", broadcastProverbID)
			}
		}

		timeout, _ := time.ParseDuration(cfg.Resend.Timeout)
		client := resend.New(cfg.Resend.BaseURL, cfg.Resend.APIKey, timeout)
		ctrl := broadcast.NewController(client, cfg.Resend.AudienceID, cfg.Resend.From)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		id, err := ctrl.CreateWeekly(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created broadcast %s (proverb %d)\n", id, p.ID)

		if !broadcastSend && broadcastScheduleAt == "" {
			return nil
		}
		if err := ctrl.Send(ctx, id, broadcastScheduleAt); err != nil {
			return err
		}
		if broadcastScheduleAt != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled broadcast %s for %s\n", id, broadcastScheduleAt)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Sent broadcast %s\n", id)
		}
		return nil
	},
}

func init() {
	broadcastCmd.Flags().BoolVar(&broadcastSend, "send", false, "send the broadcast immediately after creating it")
	broadcastCmd.Flags().StringVar(&broadcastScheduleAt, "schedule-at", "", "schedule delivery instead of sending now (passed through to the provider, e.g. \"in 1 hour\")")
	broadcastCmd.Flags().IntVar(&broadcastProverbID, "proverb-id", 0, "use a specific proverb instead of a random one")
	rootCmd.AddCommand(broadcastCmd)
}
