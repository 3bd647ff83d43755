// Package report persists research runs and renders them for humans.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/krishija/campusintel/internal/models"
)

// Store reads and writes run files in the output directory. File names are
// <slug>-<runid>.json so all runs for one campus sort together.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore builds a store rooted at dir. The directory is created on the
// first save, not here.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a campus name into a filename-safe token.
func Slugify(campus string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(campus), "-")
	return strings.Trim(s, "-")
}

// SaveDossier writes the dossier as pretty-printed JSON and returns the
// file path.
func (s *Store) SaveDossier(d *models.CampusDossier) (string, error) {
	return s.save(Slugify(d.Campus), d.Meta.RunID, d)
}

// SaveRecon writes a recon dossier. Recon runs carry a "-recon" marker in
// the slug so they never shadow campus dossiers.
func (s *Store) SaveRecon(r *models.ReconDossier) (string, error) {
	return s.save(Slugify(r.University)+"-recon", r.Meta.RunID, r)
}

func (s *Store) save(slug, runID string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", slug, runID))
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write run file: %w", err)
	}

	s.logger.Info("run saved", "path", path)
	return path, nil
}

// LoadDossier reads a saved campus dossier.
func (s *Store) LoadDossier(path string) (*models.CampusDossier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var d models.CampusDossier
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse run file %s: %w", path, err)
	}
	if d.Campus == "" {
		return nil, fmt.Errorf("run file %s is not a campus dossier", path)
	}
	return &d, nil
}

// LoadRecon reads a saved recon dossier.
func (s *Store) LoadRecon(path string) (*models.ReconDossier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var r models.ReconDossier
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse run file %s: %w", path, err)
	}
	if r.University == "" {
		return nil, fmt.Errorf("run file %s is not a recon dossier", path)
	}
	return &r, nil
}

// LatestScorecard returns the newest saved scorecard for campus whose
// quality score exceeds minQuality. Batch prospecting uses it to skip
// re-scoring campuses with good recent data.
func (s *Store) LatestScorecard(campus string, minQuality float64) (*models.Scorecard, bool) {
	slug := Slugify(campus)
	matches, err := filepath.Glob(filepath.Join(s.dir, slug+"-*.json"))
	if err != nil || len(matches) == 0 {
		return nil, false
	}

	var best *models.CampusDossier
	for _, path := range matches {
		d, err := s.LoadDossier(path)
		if err != nil || d.Scorecard == nil {
			continue
		}
		if Slugify(d.Campus) != slug {
			continue
		}
		if best == nil || d.Meta.GeneratedAt.After(best.Meta.GeneratedAt) {
			best = d
		}
	}

	if best == nil || best.Scorecard.QualityScore() <= minQuality {
		return nil, false
	}
	s.logger.Info("reusing cached scorecard",
		"campus", campus,
		"quality_score", best.Scorecard.QualityScore(),
		"generated_at", best.Meta.GeneratedAt)
	return best.Scorecard, true
}
