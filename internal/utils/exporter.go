package utils

import (
	"fmt"

	"bookshelf-api/internal/models"
)

func ExportData(logs []models.ActivityLog) error {
	for _, entry := range logs {
		//change with actual sink
		fmt.Println(entry.Timestamp, entry.PerformedBy, entry.Entity, entry.Action)
	}
	return nil
}
