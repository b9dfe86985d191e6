package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/quiz"
)

var historyCmd = &cobra.Command{
	Use:   "history [category-id]",
	Short: "List your past attempts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		userID := userFlag(cmd)
		var attempts []quiz.Attempt
		if len(args) == 1 {
			attempts, err = st.FetchAttemptHistory(ctx, userID, args[0])
		} else {
			attempts, err = st.RecentAttempts(ctx, userID, limit)
		}
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}
		quiz.SortNewestFirst(attempts)
		if limit > 0 && len(attempts) > limit {
			attempts = attempts[:limit]
		}

		if len(attempts) == 0 {
			fmt.Println("No attempts found.")
			return nil
		}

		fmt.Printf("%-19s  %-28s  %-7s  %-5s  %-6s  %s\n",
			"Taken", "Category", "Score", "%", "Time", "Band")
		fmt.Println(strings.Repeat("─", 84))
		for _, a := range attempts {
			name := a.CategoryName
			if name == "" {
				name = a.CategoryID
			}
			fmt.Printf("%-19s  %-28s  %-7s  %-5d  %-6s  %s\n",
				a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(name, 28),
				fmt.Sprintf("%d/%d", a.Score, a.TotalQuestions),
				a.Percentage(),
				fmt.Sprintf("%d:%02d", a.TimeTakenSecs/60, a.TimeTakenSecs%60),
				quiz.BandFor(a.Percentage()),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")
}
