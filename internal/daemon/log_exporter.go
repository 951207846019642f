package daemon

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"bookshelf-api/internal/models"
	"bookshelf-api/internal/utils"
)

// LogExporter periodically drains unexported activity log entries and marks
// them exported. Best effort; a failed pass is retried on the next tick.
type LogExporter struct {
	Coll     *mongo.Collection
	Interval time.Duration
	Logger   *zap.Logger
}

func (l *LogExporter) Start() {
	interval := l.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		for {
			l.exportPending()
			time.Sleep(interval)
		}
	}()
}

func (l *LogExporter) exportPending() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := l.Coll.Find(ctx, bson.M{"exported": false})
	if err != nil {
		l.Logger.Warn("activity export query failed", zap.Error(err))
		return
	}

	var entries []models.ActivityLog
	if err := res.All(ctx, &entries); err != nil {
		l.Logger.Warn("activity export decode failed", zap.Error(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	if err := utils.ExportData(entries); err != nil {
		l.Logger.Warn("activity export failed", zap.Error(err))
		return
	}

	ids := make([]primitive.ObjectID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}

	_, err = l.Coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"exported": true}},
	)
	if err != nil {
		l.Logger.Warn("activity export mark failed", zap.Error(err))
	}
}
