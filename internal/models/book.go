package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Book is the global, deduplicated catalog entry keyed on the canonical
// ISBN-13. Rows are created on first successful lookup and never deleted
// by user action.
type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ISBN13        string             `bson:"isbn_13" json:"isbn_13"`
	ISBN10        string             `bson:"isbn_10,omitempty" json:"isbn_10,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Authors       []string           `bson:"authors" json:"authors"`
	Publisher     string             `bson:"publisher,omitempty" json:"publisher,omitempty"`
	PublishedYear int                `bson:"published_year,omitempty" json:"published_year,omitempty"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Categories    []string           `bson:"categories" json:"categories"`
	CoverURL      string             `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
}

const (
	BookEntity = "book"
)
