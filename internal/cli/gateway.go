package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donnabot/donna/internal/appointment"
	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/gateway"
	"github.com/donnabot/donna/internal/knowledge"
	"github.com/donnabot/donna/internal/respond"
	"github.com/donnabot/donna/internal/session"
	"github.com/donnabot/donna/internal/speech"
	"github.com/donnabot/donna/internal/store"
	"github.com/donnabot/donna/internal/voice"
	"github.com/donnabot/donna/internal/whatsapp"
)

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Manage the Donna gateway server",
	}

	cmd.AddCommand(newGatewayRunCmd())
	return cmd
}

func newGatewayRunCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			db, err := openDB()
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			passages := store.NewPassageStore(db)
			archive := store.NewTranscriptStore(db)
			profiles := profileStore(cfg)
			client := completionClient(cfg)

			// Transcript handoff: extract appointment details, POST them
			// to the booking webhook.
			extractor := appointment.NewExtractor(client, log)
			webhook := appointment.NewWebhook(cfg.Appointment.WebhookURL, log)
			notifier := appointment.NewWorkflow(extractor, webhook, log)

			retriever := knowledge.NewRetriever(passages, cfg.Knowledge.TopK, log)
			responder := respond.NewResponder(retriever, profiles, client, log)
			manager := session.NewManager(notifier, log)

			opts := []gateway.ServerOption{
				gateway.WithSessionManager(manager),
				gateway.WithResponder(responder),
				gateway.WithArchive(archive),
			}

			sender, err := whatsapp.NewSender(cfg.Telephony, log)
			if err != nil {
				log.Warn().Err(err).Msg("outbound WhatsApp disabled")
			} else {
				opts = append(opts, gateway.WithSender(sender))
			}

			if cfg.Speech.APIKey == "" {
				log.Warn().Msg("no speech API key — voice channel disabled")
			} else {
				registry := session.NewRegistry(notifier, log)
				bridge := voice.NewBridge(registry, archive, speech.Config{
					URL:                cfg.Speech.URL,
					APIKey:             cfg.Speech.APIKey,
					Voice:              cfg.Speech.Voice,
					Instructions:       cfg.Speech.Instructions,
					Temperature:        cfg.Speech.Temperature,
					TranscriptionModel: cfg.Speech.TranscriptionModel,
				}, log)
				opts = append(opts, gateway.WithBridge(bridge))
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, log, opts...)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
