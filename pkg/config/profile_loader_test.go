package config

import (
	"os"
	"path/filepath"
	"testing"
)

const demoProfile = `name: Demo Government Authority
authority_id: GOV-DEMO-001
currency: BRL
deciders:
  - id: DECIDER-001
    role: secretary
  - id: DECIDER-002
    role: comptroller
signing:
  min_signers: 2
`

func writeProfile(t *testing.T, dir, code, body string) {
	t.Helper()
	path := filepath.Join(dir, "profile_"+code+".yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadAuthorityProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "demo", demoProfile)

	p, err := LoadAuthorityProfile(dir, "demo")
	if err != nil {
		t.Fatalf("LoadAuthorityProfile(demo): %v", err)
	}
	if p.AuthorityID != "GOV-DEMO-001" {
		t.Errorf("expected GOV-DEMO-001, got %q", p.AuthorityID)
	}
	if p.Currency != "BRL" {
		t.Errorf("expected BRL, got %q", p.Currency)
	}
	if p.Code != "demo" {
		t.Errorf("code should default from filename, got %q", p.Code)
	}
	if p.Signing.MinSigners != 2 {
		t.Errorf("expected 2 min signers, got %d", p.Signing.MinSigners)
	}
}

func TestLoadAuthorityProfile_Missing(t *testing.T) {
	if _, err := LoadAuthorityProfile(t.TempDir(), "nope"); err == nil {
		t.Error("expected error for missing profile")
	}
}

func TestLoadAuthorityProfile_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "bad", "currency: [unclosed")
	if _, err := LoadAuthorityProfile(dir, "bad"); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadAllAuthorityProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "demo", demoProfile)
	writeProfile(t, dir, "br", "name: Brazil Federal\nauthority_id: GOV-BR-001\ncurrency: BRL\n")

	profiles, err := LoadAllAuthorityProfiles(dir)
	if err != nil {
		t.Fatalf("LoadAllAuthorityProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles["br"].Name != "Brazil Federal" {
		t.Errorf("unexpected name %q", profiles["br"].Name)
	}
}

func TestDeciderHelpers(t *testing.T) {
	p := &AuthorityProfile{
		Deciders: []Decider{{ID: "DECIDER-001"}, {ID: "DECIDER-002"}},
	}
	ids := p.DeciderIDs()
	if len(ids) != 2 || ids[0] != "DECIDER-001" {
		t.Errorf("unexpected decider ids %v", ids)
	}
	if !p.HasDecider("DECIDER-002") {
		t.Error("DECIDER-002 should be registered")
	}
	if p.HasDecider("MALLORY") {
		t.Error("unknown decider should not be registered")
	}
}
