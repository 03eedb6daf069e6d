package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/SanjarHikmatov/unired-task/internal/service"
	"github.com/SanjarHikmatov/unired-task/internal/utils"
	"github.com/SanjarHikmatov/unired-task/internal/validation"
	"github.com/spf13/cobra"
)

var exportHeader = []string{"Card Number", "Expire Date", "Phone Number", "Status", "Balance"}

func addCardCmd(a *app) *cobra.Command {
	var (
		in     validation.CardInput
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "add-card",
		Short: "Create or update a card",
		Long: `Create a card, or update the card with the same number.

Examples:
  cardctl add-card --number "8600 1234 5678 9012" --expire 12/27 --phone +998901234567 --balance 5000
  cardctl add-card --generate 8600 --expire 12/27 --status inactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.CardNumber == "" && prefix != "" {
				number, err := utils.GenerateCardNumber(prefix, 16)
				if err != nil {
					return err
				}
				in.CardNumber = number
			}

			card, errs := validation.ValidateCard(in)
			if !errs.Empty() {
				return fieldErrors(errs)
			}
			if err := a.repo.UpsertCard(cmd.Context(), card); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved card %s\n", utils.FormatCardNumber(card.CardNumber))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.CardNumber, "number", "n", "", "card number, spaces allowed")
	cmd.Flags().StringVar(&prefix, "generate", "", "generate a Luhn-valid number with this prefix when --number is empty")
	cmd.Flags().StringVarP(&in.Expire, "expire", "e", "", "expiry date (MM/YY)")
	cmd.Flags().StringVarP(&in.Phone, "phone", "p", "", "owner phone number")
	cmd.Flags().StringVarP(&in.Status, "status", "s", string(models.CardStatusActive), "active, inactive or expired")
	cmd.Flags().StringVarP(&in.Balance, "balance", "b", "0", "card balance")
	return cmd
}

func exportCardsCmd(a *app) *cobra.Command {
	var (
		filter models.CardFilter
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export-cards",
		Short: "Export cards to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
			filter.CardNumber = utils.NormalizeCardNumber(filter.CardNumber)

			cards, err := a.repo.ListCards(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := a.out
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeCardsCSV(w, cards); err != nil {
				return err
			}
			a.log.Infof("Exported %d cards", len(cards))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "only cards with this status")
	cmd.Flags().StringVar(&filter.CardNumber, "card-number", "", "only cards whose number contains this value")
	cmd.Flags().StringVar(&filter.Phone, "phone", "", "only cards whose phone contains this value")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")
	return cmd
}

func writeCardsCSV(w io.Writer, cards []models.Card) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, card := range cards {
		record := []string{
			utils.FormatCardNumber(card.CardNumber),
			utils.NormalizeExpiry(card.Expire),
			utils.NormalizePhone(card.Phone),
			string(card.Status),
			card.Balance.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sendFakeMessageCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "send-fake-message",
		Short: "Log a balance message for every card with the given status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, msg := validation.Status(status)
			if msg != "" {
				return fmt.Errorf("status: %s", msg)
			}
			cards, err := a.repo.ListCards(cmd.Context(), models.CardFilter{Status: string(parsed)})
			if err != nil {
				return err
			}

			notifier := service.NewLogNotifier(a.log)
			for _, card := range cards {
				text := fmt.Sprintf(" Your card number (%s) is %s and it has %s UZS!",
					utils.FormatCardNumber(card.CardNumber), card.Status, card.Balance.StringFixed(2))
				notifier.Send(cmd.Context(), card.Phone, text)
			}
			fmt.Fprintf(a.out, "Sent %d messages\n", len(cards))
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", string(models.CardStatusActive), "status of the cards to message")
	return cmd
}

// fieldErrors renders validation failures as one error, fields in name order
func fieldErrors(errs validation.Errors) error {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, fmt.Sprintf("%s: %s", field, strings.Join(errs[field], "; ")))
	}
	return fmt.Errorf("invalid card:\n  %s", strings.Join(lines, "\n  "))
}
