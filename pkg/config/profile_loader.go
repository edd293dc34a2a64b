package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AuthorityProfile describes one public authority operating a ledger chain:
// its identity, the deciders allowed to sign its records, and the currency
// its decisions are denominated in.
type AuthorityProfile struct {
	Name        string        `yaml:"name" json:"name"`
	Code        string        `yaml:"code" json:"code"`
	AuthorityID string        `yaml:"authority_id" json:"authority_id"`
	Currency    string        `yaml:"currency" json:"currency"`
	Deciders    []Decider     `yaml:"deciders" json:"deciders"`
	Signing     SigningConfig `yaml:"signing" json:"signing"`
}

// Decider identifies one official authorized to co-sign decision records.
type Decider struct {
	ID   string `yaml:"id" json:"id"`
	Role string `yaml:"role,omitempty" json:"role,omitempty"`
}

// SigningConfig holds the signature requirements for the authority's records.
type SigningConfig struct {
	MinSigners int `yaml:"min_signers" json:"min_signers"`
}

// LoadAuthorityProfile loads an authority profile YAML by code.
// It searches the profiles directory for profile_<code>.yaml.
func LoadAuthorityProfile(profilesDir, code string) (*AuthorityProfile, error) {
	code = strings.ToLower(code)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", code))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", code, err)
	}

	var profile AuthorityProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", code, err)
	}

	if profile.Code == "" {
		profile.Code = code
	}

	return &profile, nil
}

// LoadAllAuthorityProfiles loads all profile_*.yaml files from the directory.
func LoadAllAuthorityProfiles(profilesDir string) (map[string]*AuthorityProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*AuthorityProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile AuthorityProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if profile.Code == "" {
			base := filepath.Base(path)
			profile.Code = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}

		profiles[profile.Code] = &profile
	}

	return profiles, nil
}

// DeciderIDs returns the ids of all deciders registered for the authority.
func (p *AuthorityProfile) DeciderIDs() []string {
	ids := make([]string, len(p.Deciders))
	for i, d := range p.Deciders {
		ids[i] = d.ID
	}
	return ids
}

// HasDecider reports whether the given id is a registered decider.
func (p *AuthorityProfile) HasDecider(id string) bool {
	for _, d := range p.Deciders {
		if d.ID == id {
			return true
		}
	}
	return false
}
