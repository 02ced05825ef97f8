package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"timegrid/internal/timesheet"
)

func ToCSV(entries []timesheet.Entry, projects map[int64]timesheet.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Date", "Project", "Hours", "Created At", "Synced"}); err != nil {
		return err
	}

	for _, e := range entries {
		projectName := "Unknown"
		if p, ok := projects[e.ProjectID]; ok {
			projectName = p.Name
		}

		row := []string{
			e.ID,
			e.Date,
			projectName,
			fmt.Sprintf("%.2f", e.Hours),
			e.CreatedAt.Local().Format(time.RFC3339),
			fmt.Sprintf("%t", e.Synced),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
