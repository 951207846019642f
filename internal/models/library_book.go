package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LibraryBook links a Library to a UserBook. Unique on
// (library_id, user_book_id); adding an already-linked annotation is a no-op.
type LibraryBook struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LibraryID  primitive.ObjectID `bson:"library_id" json:"library_id"`
	UserBookID primitive.ObjectID `bson:"user_book_id" json:"user_book_id"`
	AddedAt    time.Time          `bson:"added_at" json:"added_at"`
}

const (
	LibraryBookEntity = "library_book"
)
