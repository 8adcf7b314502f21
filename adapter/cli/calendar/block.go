package calendar

import (
	"fmt"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/calendar/application/commands"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	blockReason string
	blockActor  string
	blockStart  string
	blockEnd    string
)

var blockDayCmd = &cobra.Command{
	Use:   "block-day <date>",
	Short: "Close a whole day",
	Long: `Close a day so it offers no slots at all.

Examples:
  spabook calendar block-day 2026-12-25 --reason "Navidad"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BlockDay == nil {
			return fmt.Errorf("calendar commands require a database connection")
		}

		date, err := sharedDomain.ParseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		result, err := app.BlockDay.Handle(cmd.Context(), commands.BlockDayCommand{
			Date:      date,
			Reason:    blockReason,
			BlockedBy: blockActor,
		})
		if err != nil {
			return fmt.Errorf("failed to block day: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Blocked %s (%s)\n", date, result.BlockID)
		return nil
	},
}

var unblockDayCmd = &cobra.Command{
	Use:   "unblock-day <date>",
	Short: "Reopen a closed day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnblockDay == nil {
			return fmt.Errorf("calendar commands require a database connection")
		}

		date, err := sharedDomain.ParseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		if err := app.UnblockDay.Handle(cmd.Context(), commands.UnblockDayCommand{
			Date:        date,
			UnblockedBy: blockActor,
		}); err != nil {
			return fmt.Errorf("failed to unblock day: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reopened %s\n", date)
		return nil
	},
}

var blockHoursCmd = &cobra.Command{
	Use:   "block-hours <date>",
	Short: "Block a range of hours on a day",
	Long: `Block the hours between --start and --end. Slots overlapping the
range are no longer offered.

Examples:
  spabook calendar block-hours 2026-11-03 --start 13:00 --end 15:00 --reason "Mantenimiento"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BlockHours == nil {
			return fmt.Errorf("calendar commands require a database connection")
		}

		date, err := sharedDomain.ParseDate(args[0])
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}
		start, err := sharedDomain.ParseClock(blockStart)
		if err != nil {
			return fmt.Errorf("invalid start time, use HH:MM: %w", err)
		}
		end, err := sharedDomain.ParseClock(blockEnd)
		if err != nil {
			return fmt.Errorf("invalid end time, use HH:MM: %w", err)
		}

		result, err := app.BlockHours.Handle(cmd.Context(), commands.BlockHoursCommand{
			Date:      date,
			Start:     start,
			End:       end,
			Reason:    blockReason,
			BlockedBy: blockActor,
		})
		if err != nil {
			return fmt.Errorf("failed to block hours: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Blocked %s %s-%s (%s)\n", date, start, end, result.RangeID)
		return nil
	},
}

var unblockHoursCmd = &cobra.Command{
	Use:   "unblock-hours <range-id>",
	Short: "Remove a blocked range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnblockHours == nil {
			return fmt.Errorf("calendar commands require a database connection")
		}

		rangeID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid range ID: %w", err)
		}

		if err := app.UnblockHours.Handle(cmd.Context(), commands.UnblockHoursCommand{
			RangeID:     rangeID,
			UnblockedBy: blockActor,
		}); err != nil {
			return fmt.Errorf("failed to unblock hours: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed blocked range %s\n", rangeID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{blockDayCmd, unblockDayCmd, blockHoursCmd, unblockHoursCmd} {
		c.Flags().StringVar(&blockActor, "by", "cli", "operator recorded on the change")
	}
	blockDayCmd.Flags().StringVarP(&blockReason, "reason", "r", "", "why the day is closed")
	blockHoursCmd.Flags().StringVarP(&blockReason, "reason", "r", "", "why the hours are blocked")
	blockHoursCmd.Flags().StringVar(&blockStart, "start", "", "range start (HH:MM)")
	blockHoursCmd.Flags().StringVar(&blockEnd, "end", "", "range end (HH:MM)")
	_ = blockHoursCmd.MarkFlagRequired("start")
	_ = blockHoursCmd.MarkFlagRequired("end")
}
