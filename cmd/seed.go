package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.json]",
	Short: "Import categories and questions",
	Long:  "Import categories and questions from a JSON seed file, or the built-in question bank when no file is given. Existing categories are updated and their question sets replaced; attempts are kept.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var seed store.SeedFile
		if len(args) == 0 {
			seed, err = store.DefaultSeed()
		} else {
			var f *os.File
			f, err = os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()
			seed, err = store.ParseSeed(f)
		}
		if err != nil {
			return err
		}

		res, err := st.Import(ctx, seed)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		fmt.Printf("Imported %d categories and %d questions.\n", res.Categories, res.Questions)
		return nil
	},
}
