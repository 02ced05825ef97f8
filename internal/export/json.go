package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"timegrid/internal/timesheet"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	TotalHours float64     `json:"total_hours"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Project   string  `json:"project"`
	ProjectID int64   `json:"project_id"`
	Hours     float64 `json:"hours"`
	CreatedAt string  `json:"created_at"`
	Synced    bool    `json:"synced"`
}

func ToJSON(entries []timesheet.Entry, projects map[int64]timesheet.Project, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		projectName := "Unknown"
		if p, ok := projects[e.ProjectID]; ok {
			projectName = p.Name
		}
		export.TotalHours += e.Hours

		export.Entries = append(export.Entries, jsonEntry{
			ID:        e.ID,
			Date:      e.Date,
			Project:   projectName,
			ProjectID: e.ProjectID,
			Hours:     e.Hours,
			CreatedAt: e.CreatedAt.Local().Format(time.RFC3339),
			Synced:    e.Synced,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
