package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Library groups a user's annotations under a name. Every user owns exactly
// one default library (partial-unique index on user_id + is_default=true);
// the default cannot be renamed, demoted or deleted. Slug is globally unique
// and backs the public share URL.
type Library struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"`
	IsPublic  bool               `bson:"is_public" json:"is_public"`
	IsDefault bool               `bson:"is_default" json:"is_default"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

const (
	LibraryEntity = "library"

	DefaultLibraryName = "My Library"
)
