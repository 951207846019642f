package utils

import (
	"strings"

	"bookshelf-api/internal/models"
)

// BuildSearchBlob derives the lowercase string the substring filter runs
// against: catalog fields (title, authors, categories) joined with the
// personal fields (genres, tags, notes). It is recomputed in full on every
// mutating path, never incrementally.
func BuildSearchBlob(book models.Book, genres, tags []string, notes string) string {
	parts := []string{
		book.Title,
		strings.Join(book.Authors, " "),
		strings.Join(book.Categories, " "),
		strings.Join(genres, " "),
		strings.Join(tags, " "),
		notes,
	}
	return strings.ToLower(strings.Join(parts, " "))
}
