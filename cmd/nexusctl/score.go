package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/grid-nexus/nexus-api/internal/ranking"
)

// Example: nexusctl score 10 0
var scoreCmd = &cobra.Command{
	Use:   "score <likes> <dislikes>",
	Short: "Print the ranking score for a vote count",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		likes, err := strconv.Atoi(args[0])
		if err != nil || likes < 0 {
			return fmt.Errorf("likes must be a non-negative integer, got %q", args[0])
		}
		dislikes, err := strconv.Atoi(args[1])
		if err != nil || dislikes < 0 {
			return fmt.Errorf("dislikes must be a non-negative integer, got %q", args[1])
		}

		fmt.Fprintf(cmd.OutOrStdout(), "score=%.4f spread=%d\n", ranking.Score(likes, dislikes), ranking.Spread(likes, dislikes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
