package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/server"
	"github.com/wardenhq/warden/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the warden API server",
		Long:  "Start the HTTP server that exposes the admin and data APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides config)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if dev {
		cfg.Logging.Level = "debug"
	}

	logger := newLogger(cfg.Logging)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "driver", cfg.Database.Driver)

	users := store.NewUserStore(st)
	sessions := store.NewSessionStore(st)
	backend := auth.NewBackend(users, sessions, logger)

	secret := cfg.Auth.SecretKey
	if secret == "" {
		secret = "warden-dev-secret-change-me"
		logger.Warn("auth.secret_key is not set; using an insecure development default")
	}

	if n, err := users.Count(context.Background()); err == nil && n == 0 {
		logger.Warn("no user accounts exist - run: warden user create")
	}

	shutdownTimeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err == nil {
			shutdownTimeout = d
		}
	}

	srvCfg := server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ShutdownTimeout:    shutdownTimeout,
		CORSOrigins:        cfg.Server.CORS.Origins,
		SessionSecret:      secret,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
	}

	srv := server.New(srvCfg, st, backend, logger)

	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health: http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
