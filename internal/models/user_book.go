package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReadStatus string

const (
	StatusUnread    ReadStatus = "unread"
	StatusReading   ReadStatus = "reading"
	StatusCompleted ReadStatus = "completed"

	UserBookEntity = "user_book"
)

// UserBook is one user's relationship to a catalog Book. At most one row
// exists per (user_id, book_id); writes go through an upsert that enforces
// this. SearchBlob is derived from the book and the personal fields and is
// rewritten on every mutation touching either side.
type UserBook struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	BookID        primitive.ObjectID `bson:"book_id" json:"book_id"`
	Genres        []string           `bson:"genres" json:"genres"`
	Tags          []string           `bson:"tags" json:"tags"`
	PersonalNotes string             `bson:"personal_notes,omitempty" json:"personal_notes,omitempty"`
	Rating        *int               `bson:"rating,omitempty" json:"rating,omitempty"`
	ReadStatus    ReadStatus         `bson:"read_status" json:"read_status"`
	SearchBlob    string             `bson:"search_blob" json:"-"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

var ValidReadStatuses = map[string]bool{
	string(StatusUnread):    true,
	string(StatusReading):   true,
	string(StatusCompleted): true,
}

func IsValidReadStatus(status string) bool {
	return ValidReadStatuses[status]
}
