package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/knowledge"
	"github.com/donnabot/donna/internal/store"
)

func newIngestCmd() *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Load a company document into the knowledge base",
		Long: "Ingest reads a plain-text company document, extracts the company profile, " +
			"and indexes the document as searchable passages. Re-ingesting a file " +
			"replaces its previous passages.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if chunkSize != 0 {
				cfg.Knowledge.ChunkSize = chunkSize
			}
			if cfg.Completion.APIKey == "" {
				return fmt.Errorf("no completion API key configured — profile extraction needs one")
			}

			db, err := openDB()
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			ingestor := knowledge.NewIngestor(
				store.NewPassageStore(db),
				profileStore(cfg),
				completionClient(cfg),
				cfg.Knowledge.ChunkSize,
				log,
			)

			n, err := ingestor.Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %s: %d passage(s)\n", args[0], n)
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "override passage size in characters")

	return cmd
}
