package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/bot"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateBot(); err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		kv, closeKV, err := openKV(ctx, cfg, st)
		if err != nil {
			return err
		}
		defer closeKV()

		api, err := bot.Connect(cfg.TelegramToken, debug)
		if err != nil {
			return err
		}

		opts := bot.Options{
			Backend:   st,
			KV:        kv,
			Generator: newGenerator(ctx, cfg, st),
		}
		return bot.New(api, opts).Run(ctx, api)
	},
}

func init() {
	botCmd.Flags().Bool("debug", false, "Log Telegram API traffic")
}
