package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/knowledge"
	"github.com/donnabot/donna/internal/store"
	"github.com/donnabot/donna/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Donna status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Donna %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.TLS.Enabled)
			fmt.Printf("Session: idle timeout=%ds\n", cfg.Session.IdleSeconds)

			if cfg.Speech.APIKey != "" {
				fmt.Printf("Voice:   %s voice=%s\n", cfg.Speech.URL, cfg.Speech.Voice)
			} else {
				fmt.Println("Voice:   (disabled — no speech API key)")
			}
			fmt.Printf("Text:    model=%s\n", cfg.Completion.Model)

			if cfg.Telephony.AccountSID != "" {
				fmt.Printf("WhatsApp: from=%s approved=%d\n",
					cfg.Telephony.WhatsAppFrom, len(cfg.Telephony.ApprovedNumbers))
			} else {
				fmt.Println("WhatsApp: (outbound not configured)")
			}

			if cfg.Appointment.WebhookURL != "" {
				fmt.Println("Booking: webhook configured")
			} else {
				fmt.Println("Booking: (no webhook — transcripts logged only)")
			}

			printKnowledge(cfg)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

// printKnowledge reports the knowledge base without creating it: a first
// status run should not leave a data directory behind.
func printKnowledge(cfg config.Config) {
	profile, err := profileStore(cfg).Load()
	switch {
	case errors.Is(err, knowledge.ErrNoProfile):
		fmt.Println("Company: (no profile — run `donna ingest` first)")
	case err != nil:
		fmt.Printf("Company: error loading profile: %v\n", err)
	default:
		fmt.Printf("Company: %s", profile.CompanyName)
		if profile.Services != "" {
			fmt.Printf(" (%s)", profile.Services)
		}
		fmt.Println()
	}

	dbPath := filepath.Join(paths.Data, "donna.db")
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Println("Knowledge: (empty)")
		return
	}
	db, err := store.Open(dbPath, log)
	if err != nil {
		fmt.Printf("Knowledge: error opening database: %v\n", err)
		return
	}
	defer db.Close()

	chunks, err := store.NewPassageStore(db).Count()
	if err != nil {
		fmt.Printf("Knowledge: error counting chunks: %v\n", err)
		return
	}
	transcripts, _ := store.NewTranscriptStore(db).Count()
	fmt.Printf("Knowledge: %d chunk(s), %d archived transcript(s)\n", chunks, transcripts)
}
