package cli

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"ragbot/internal/server"
	"ragbot/internal/service"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			svc, err := service.New(cfg)
			if err != nil {
				return err
			}
			router := server.NewRouter(server.NewHandler(svc))
			log.Printf("listening on %s", cfg.Server.Addr)
			return http.ListenAndServe(cfg.Server.Addr, router)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured value)")
	return cmd
}
