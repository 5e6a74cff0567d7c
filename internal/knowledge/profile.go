// Package knowledge manages what the receptionist knows: the company
// profile and the searchable passage base built from ingested text.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/donnabot/donna/internal/domain"
)

// ErrNoProfile is returned before any company profile has been stored.
var ErrNoProfile = errors.New("knowledge: company profile not stored yet")

// ProfileStore persists the company profile as a flat JSON file.
// Last writer wins; there is a single writer at setup time.
type ProfileStore struct {
	path string
}

// NewProfileStore creates a store at the given file path.
func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Save writes the profile, replacing any previous one.
func (s *ProfileStore) Save(p domain.CompanyProfile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("knowledge: marshal profile: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("knowledge: create profile directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("knowledge: write profile: %w", err)
	}
	return nil
}

// Load reads the stored profile.
func (s *ProfileStore) Load() (domain.CompanyProfile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.CompanyProfile{}, ErrNoProfile
	}
	if err != nil {
		return domain.CompanyProfile{}, fmt.Errorf("knowledge: read profile: %w", err)
	}
	var p domain.CompanyProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.CompanyProfile{}, fmt.Errorf("knowledge: parse profile: %w", err)
	}
	return p, nil
}
