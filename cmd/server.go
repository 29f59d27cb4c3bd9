package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/config"
	"github.com/ziadkadry99/diamond-desk/internal/dashboard"
	"github.com/ziadkadry99/diamond-desk/internal/db"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
	"github.com/ziadkadry99/diamond-desk/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the web server with the price estimate and chat pages",
	Long:  `Starts the diamonddesk web server: the price estimation form, the moderated chat assistant, their JSON APIs and the usage ledger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, database)

		estimator := pricing.NewEstimator(loadPredictor(cfg))
		sessions := registerAllRoutes(srv, cfg, estimator)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go sessions.Run(ctx, time.Minute)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		ledger := cfg.DBPath
		if ledger == "" {
			ledger = "in memory"
		}
		fmt.Fprintf(os.Stderr, "diamonddesk server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Price model: %s\n", modelDescription(estimator))
		fmt.Fprintf(os.Stderr, "  Chat model: %s\n", cfg.Chat.Model)
		fmt.Fprintf(os.Stderr, "  Ledger: %s\n", ledger)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// registerAllRoutes wires the ledger, chat sessions and pages onto the server
// and returns the session registry so its idle sweep can be started.
func registerAllRoutes(srv *server.Server, cfg *config.Config, estimator *pricing.Estimator) *chat.Registry {
	r := srv.Router()

	// Usage ledger
	auditStore := audit.NewStore(srv.Database())
	audit.RegisterRoutes(r, auditStore)
	recorder := audit.NewRecorder(auditStore)

	// Chat sessions
	sessions := chat.NewRegistry(chat.RegistryConfig{
		Model:             cfg.Chat.Model,
		Styles:            cfg.Chat.Styles,
		RequestsPerMinute: cfg.Chat.RequestsPerMinute,
		IdleTimeout:       time.Duration(cfg.Chat.IdleMinutes) * time.Minute,
		Factory:           openAIFactory(cfg),
		Observer:          recorder,
	})

	// Pages
	dash := dashboard.New(dashboard.Options{
		Estimator: estimator,
		Sessions:  sessions,
		Recorder:  recorder,
		Defaults:  defaultChatSettings(cfg),
	})
	dash.RegisterRoutes(r)
	return sessions
}

func modelDescription(e *pricing.Estimator) string {
	if name := e.ModelName(); name != "" {
		return name
	}
	return "not loaded"
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
