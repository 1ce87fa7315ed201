package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/tracegen/internal/dataset"
)

func init() {
	rootCmd.AddCommand(rescueCmd)
	rescueCmd.Flags().Int("min-turns", 5, "minimum turns for an entry to be worth rescuing")
}

var rescueCmd = &cobra.Command{
	Use:   "rescue <error-file> <output-file>",
	Short: "Copy salvageable partial sessions from an errors file into the dataset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minTurns, _ := cmd.Flags().GetInt("min-turns")

		rescued, err := dataset.Rescue(args[0], args[1], minTurns)
		if err != nil {
			return fmt.Errorf("rescue: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Rescued %d entries from %s to %s\n", rescued, args[0], args[1])
		return nil
	},
}
