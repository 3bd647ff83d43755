package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTargets(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCampaign_PlainText(t *testing.T) {
	path := writeTargets(t, "targets.txt", `
# priority list
University of Vermont

Texas Christian University
`)

	c, err := loadCampaign(path)
	if err != nil {
		t.Fatalf("loadCampaign() error = %v", err)
	}
	if len(c.Targets) != 2 {
		t.Fatalf("targets = %v", c.Targets)
	}
	if c.Targets[0] != "University of Vermont" || c.Targets[1] != "Texas Christian University" {
		t.Errorf("targets = %v", c.Targets)
	}
	if c.Workers != 0 || c.TopN != 0 {
		t.Errorf("plain text must not set batch overrides: %+v", c)
	}
}

func TestLoadCampaign_YAML(t *testing.T) {
	path := writeTargets(t, "campaign.yaml", `
targets:
  - University of Vermont
  - Texas Christian University
  - St. Olaf College
workers: 2
top_n: 1
skip_contacts: true
`)

	c, err := loadCampaign(path)
	if err != nil {
		t.Fatalf("loadCampaign() error = %v", err)
	}
	if len(c.Targets) != 3 {
		t.Errorf("targets = %v", c.Targets)
	}
	if c.Workers != 2 || c.TopN != 1 || !c.SkipContacts {
		t.Errorf("overrides = %+v", c)
	}
}

func TestLoadCampaign_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"empty text file", "targets.txt", "# nothing here\n"},
		{"yaml without targets", "campaign.yaml", "workers: 3\n"},
		{"malformed yaml", "campaign.yaml", "targets: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTargets(t, tt.file, tt.content)
			if _, err := loadCampaign(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := loadCampaign(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
