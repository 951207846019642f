package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"bookshelf-api/internal/models"
)

// Logger records domain activity (who did what to which entity) in the
// activity_logs collection. Entries start unexported; the exporter daemon
// drains them.
type Logger struct {
	Collection *mongo.Collection
}

func (l *Logger) Log(ctx context.Context, entity, action, performedBy string, data any) error {
	if performedBy == "" {
		performedBy = "system"
	}
	entry := models.ActivityLog{
		Timestamp:   time.Now(),
		Entity:      entity,
		Action:      action,
		PerformedBy: performedBy,
		Data:        data,
		Exported:    false,
	}
	_, err := l.Collection.InsertOne(ctx, entry)
	return err
}
