package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/api"
	"github.com/unisupport/unisupport/internal/realtime"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		gin.SetMode(cfg.GinMode)

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

		opts := api.Options{
			Backend:     st,
			KV:          kv,
			Hub:         realtime.NewHub(),
			Secret:      []byte(cfg.JWTSecret),
			CORSOrigins: cfg.CORSOrigins,
			Generator:   newGenerator(ctx, cfg, st),
		}

		if err := api.New(opts).ListenAndServe(ctx, cfg.Addr); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides UNISUPPORT_ADDR)")
}
