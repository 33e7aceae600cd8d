package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yoruba-proverbs/internal/dispatch"
	"yoruba-proverbs/internal/proverb"
	"yoruba-proverbs/internal/resend"

	"github.com/spf13/cobra"
)

var (
	sendAll       bool
	sendProverbID int
)

var sendCmd = &cobra.Command{
	Use:   "send [email]",
	Short: "Send a proverb email to one recipient or the whole audience",
	Args: func(cmd *cobra.Command, args []string) error {
		if sendAll {
			return nil
		}
		if len(args) < 1 {
			return errors.New("requires a recipient email, or --all")
		}
		return nil
	},
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
		if sendProverbID > 0 {
			var ok bool
			if p, ok = proverbs.ByID(sendProverbID); !ok {
				return fmt.Errorf("no proverb with id %d", sendProverbID)
			}
		}

		timeout, _ := time.ParseDuration(cfg.Resend.Timeout)
		client := resend.New(cfg.Resend.BaseURL, cfg.Resend.APIKey, timeout)
		d := dispatch.New(client, cfg.Resend.From, cfg.App.BaseURL, 0)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		var recipients []dispatch.Recipient
		if sendAll {
			if cfg.Resend.AudienceID == "" {
				return errors.New("resend.audience_id is required for --all")
			}
			contacts, err := client.ListContacts(ctx, cfg.Resend.AudienceID)
			if err != nil {
				return err
			}
			for _, c := range contacts {
				if c.Unsubscribed {
					continue
				}
				recipients = append(recipients, dispatch.Recipient{Email: c.Email, Name: c.FirstName})
			}
			if len(recipients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active subscribers to send to")
				return nil
			}
		} else {
			recipients = []dispatch.Recipient{{Email: args[0]}}
		}

		tally := d.SendAll(ctx, recipients, p)
		fmt.Fprintf(cmd.OutOrStdout(), "Sent proverb %d: %d delivered, %d failed\n", p.ID, tally.Sent, tally.Failed)
		if tally.Sent == 0 {
			return errors.New("no emails were delivered")
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().BoolVar(&sendAll, "all", false, "send to every active subscriber in the audience")
	sendCmd.Flags().IntVar(&sendProverbID, "proverb-id", 0, "use a specific proverb instead of a random one")
	rootCmd.AddCommand(sendCmd)
}
