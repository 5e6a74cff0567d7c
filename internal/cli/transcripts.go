package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/donnabot/donna/internal/store"
)

func newTranscriptsCmd() *cobra.Command {
	var (
		limit int
		full  bool
	)

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List archived conversation transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := filepath.Join(paths.Data, "donna.db")
			if _, err := os.Stat(dbPath); err != nil {
				fmt.Println("No transcripts yet.")
				return nil
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			recs, err := store.NewTranscriptStore(db).Recent(limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No transcripts yet.")
				return nil
			}

			for _, rec := range recs {
				fmt.Printf("%s  %-5s  %s  %d turn(s)\n",
					rec.ID, rec.Kind, rec.StartedAt.Format("2006-01-02 15:04"), rec.Turns)
				if full {
					fmt.Println(rec.Transcript)
					fmt.Println()
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum transcripts to list")
	cmd.Flags().BoolVar(&full, "full", false, "print full transcript text")

	return cmd
}
