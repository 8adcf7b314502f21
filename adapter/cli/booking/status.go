package booking

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	"github.com/spf13/cobra"
)

var (
	statusReason string
	statusActor  string
)

var statusCmd = &cobra.Command{
	Use:   "status <code> <status>",
	Short: "Move a booking to a new status",
	Long: `Move a booking along its lifecycle.

Statuses: confirmed, completed, cancelled, no_show

Examples:
  spabook booking status SPA-2026-K7Q2MX confirmed
  spabook booking status SPA-2026-K7Q2MX cancelled --reason "cliente enfermo"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ChangeStatus == nil {
			return fmt.Errorf("booking commands require a database connection")
		}

		target, err := domain.ParseStatus(strings.ToLower(args[1]))
		if err != nil {
			return fmt.Errorf("invalid status %q: %w", args[1], err)
		}

		result, err := app.ChangeStatus.Handle(cmd.Context(), commands.ChangeStatusCommand{
			Code:   args[0],
			Target: target,
			Reason: statusReason,
			Actor:  statusActor,
		})
		if err != nil {
			return fmt.Errorf("failed to change status: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Booking %s is now %s\n", result.Code, result.Status)
		if result.Credit != nil {
			fmt.Fprintf(out, "Issued credit of %s valid until %s\n",
				cli.FormatPrice(result.Credit.Amount().Amount(), result.Credit.Amount().Currency()),
				result.Credit.ExpiresAt().In(cli.Location()).Format("2006-01-02"),
			)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusReason, "reason", "r", "", "reason, recorded on cancellations")
	statusCmd.Flags().StringVar(&statusActor, "by", "cli", "operator recorded on the change")
}
