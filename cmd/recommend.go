package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [category-id]",
	Short: "Suggest careers from your attempt history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		refresh, _ := cmd.Flags().GetBool("refresh")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		gen := newGenerator(ctx, cfg, st)
		if gen == nil {
			return errors.New("no LLM provider configured")
		}
		kv, closeKV, err := openKV(ctx, cfg, st)
		if err != nil {
			return err
		}
		defer closeKV()

		userID := userFlag(cmd)
		profile, ok, err := auth.LoadProfile(ctx, st, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if !ok {
			profile = auth.Profile{UserID: userID}
		}

		categoryID := ""
		var attempts []quiz.Attempt
		if len(args) == 1 {
			categoryID = args[0]
			attempts, err = st.FetchAttemptHistory(ctx, userID, categoryID)
		} else {
			attempts, err = st.RecentAttempts(ctx, userID, 20)
		}
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No attempts yet. Take an assessment first.")
			return nil
		}

		cache := userCache(kv, gen, userID)
		var res history.Result
		if refresh {
			res, err = cache.Refresh(ctx, profile, categoryID, attempts)
		} else {
			res, err = cache.Load(ctx, profile, categoryID, attempts)
		}
		if err != nil {
			return err
		}

		if res.FromCache {
			fmt.Println("(saved suggestions, run with --refresh to regenerate)")
			fmt.Println()
		}
		for i, r := range res.Recommendations {
			fmt.Printf("%d. %s\n", i+1, r.Title)
			fmt.Printf("   %s\n", r.Description)
			if r.Reasoning != "" {
				fmt.Printf("   Why: %s\n", r.Reasoning)
			}
			if len(r.SuggestedSkills) > 0 {
				fmt.Printf("   Skills to learn: %s\n", strings.Join(r.SuggestedSkills, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().Bool("refresh", false, "Regenerate even when saved suggestions match your history")
}
