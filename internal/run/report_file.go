package run

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goeslapse/goesdown/internal/domain"
)

// WriteReportFile persists the final report as JSON. The write is staged
// through a temporary file and renamed into place, the same guarantee the
// downloads themselves get: a reader never sees a half-written report.
func WriteReportFile(path string, report *domain.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
