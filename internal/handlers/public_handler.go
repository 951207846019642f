package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bookshelf-api/internal/models"
	"bookshelf-api/internal/query"
	"bookshelf-api/internal/utils"
)

type PublicHandler struct {
	LibraryCollection     *mongo.Collection
	LibraryBookCollection *mongo.Collection
}

func NewPublicHandler(libraryColl, libraryBookColl *mongo.Collection) *PublicHandler {
	return &PublicHandler{
		LibraryCollection:     libraryColl,
		LibraryBookCollection: libraryBookColl,
	}
}

// publicBook is the full visible surface of a shared library entry. Personal
// notes, rating, read status and the owner id never leave the server here.
type publicBook struct {
	Title     string    `bson:"title" json:"title"`
	Authors   []string  `bson:"authors" json:"authors"`
	CoverURL  string    `bson:"cover_url" json:"cover_url,omitempty"`
	Genres    []string  `bson:"genres" json:"genres"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// GET /public/library/{slug}
//
// Unauthenticated read-only view of a public library, newest first, with the
// standard cursor protocol.
func (h *PublicHandler) ViewLibrary(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	ctx := r.Context()

	var library models.Library
	err := h.LibraryCollection.FindOne(ctx, bson.M{"slug": slug, "is_public": true}).Decode(&library)
	if err != nil {
		utils.JSONError(w, "Library not found", http.StatusNotFound)
		return
	}

	page, err := query.ParsePage(r.URL.Query())
	if err != nil {
		utils.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"library_id": library.ID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "user_books",
			"localField":   "user_book_id",
			"foreignField": "_id",
			"as":           "user_book",
		}}},
		{{Key: "$unwind", Value: "$user_book"}},
	}

	if page.Cursor != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"user_book.updated_at": bson.M{"$lt": *page.Cursor},
		}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "books",
			"localField":   "user_book.book_id",
			"foreignField": "_id",
			"as":           "book",
		}}},
		bson.D{{Key: "$unwind", Value: "$book"}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "user_book.updated_at", Value: -1},
			{Key: "user_book._id", Value: -1},
		}}},
		bson.D{{Key: "$limit", Value: page.Limit + 1}},
		// Projection is the privacy boundary: only display fields survive.
		bson.D{{Key: "$project", Value: bson.M{
			"_id":        0,
			"title":      "$book.title",
			"authors":    "$book.authors",
			"cover_url":  "$book.cover_url",
			"genres":     "$user_book.genres",
			"updated_at": "$user_book.updated_at",
		}}},
	)

	cursor, err := h.LibraryBookCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.JSONError(w, "Failed to load library", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var rows []publicBook
	if err := cursor.All(ctx, &rows); err != nil {
		utils.JSONError(w, "Failed to decode library", http.StatusInternalServerError)
		return
	}

	items, hasMore := query.Trim(rows, page.Limit)
	var next *time.Time
	if hasMore && len(items) > 0 {
		next = &items[len(items)-1].UpdatedAt
	}

	json.NewEncoder(w).Encode(struct {
		LibraryName string `json:"library_name"`
		query.Envelope
	}{
		LibraryName: library.Name,
		Envelope:    query.NewEnvelope(items, next, page.Limit),
	})
}
