package calendar

import (
	"github.com/spf13/cobra"
)

// Cmd is the calendar command group
var Cmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage closed days and blocked hours",
	Long:  `Close whole days or block ranges of hours so no slots are offered in them.`,
}

func init() {
	Cmd.AddCommand(blockDayCmd)
	Cmd.AddCommand(unblockDayCmd)
	Cmd.AddCommand(blockHoursCmd)
	Cmd.AddCommand(unblockHoursCmd)
	Cmd.AddCommand(listCmd)
}
