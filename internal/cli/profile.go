package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/knowledge"
)

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the extracted company profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			profile, err := profileStore(cfg).Load()
			if errors.Is(err, knowledge.ErrNoProfile) {
				return fmt.Errorf("no company profile — run `donna ingest` first")
			}
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(profile, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
