package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/krishija/campusintel/internal/models"
)

// WriteContactsCSV exports contacts for import into outreach tooling.
// Unconfirmed fields export as empty cells.
func WriteContactsCSV(contacts []models.ContactRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "title", "organization", "email", "phone", "confidence"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range contacts {
		record := []string{
			models.StringOr(c.Name, ""),
			models.StringOr(c.Title, ""),
			models.StringOr(c.Organization, ""),
			models.StringOr(c.Email, ""),
			models.StringOr(c.Phone, ""),
			string(c.Confidence),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
