package cli

import (
	"path/filepath"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/knowledge"
	"github.com/donnabot/donna/internal/llm"
	"github.com/donnabot/donna/internal/store"
)

// openDB opens the SQLite database under the data directory, creating the
// directory tree on first run.
func openDB() (*store.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	return store.Open(filepath.Join(paths.Data, "donna.db"), log)
}

// profileStore resolves the company profile path; relative paths live under
// the data directory.
func profileStore(cfg config.Config) *knowledge.ProfileStore {
	p := cfg.Knowledge.ProfilePath
	if !filepath.IsAbs(p) {
		p = filepath.Join(paths.Data, p)
	}
	return knowledge.NewProfileStore(p)
}

// completionClient builds the chat completion client from config.
func completionClient(cfg config.Config) llm.Client {
	return llm.NewOpenAIClient(cfg.Completion.BaseURL, cfg.Completion.APIKey, cfg.Completion.Model)
}
