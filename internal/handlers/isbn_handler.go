package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"bookshelf-api/internal/catalog"
	"bookshelf-api/internal/constants"
	"bookshelf-api/internal/middleware"
	"bookshelf-api/internal/models"
	"bookshelf-api/internal/utils"
)

type ISBNHandler struct {
	BookCollection *mongo.Collection
	Catalog        *catalog.Client
	AuditLogger    utils.Logger
}

func NewISBNHandler(bookColl *mongo.Collection, client *catalog.Client, logger utils.Logger) *ISBNHandler {
	return &ISBNHandler{
		BookCollection: bookColl,
		Catalog:        client,
		AuditLogger:    logger,
	}
}

// GET /isbn/{isbn}
//
// Cache-or-fetch resolution: local row by canonical ISBN-13 wins; on miss the
// external catalog is consulted and the result persisted. At most one row is
// ever created per canonical identifier; the duplicate-key race between two
// concurrent resolvers is swallowed and the winner's row re-read.
func (h *ISBNHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	isbn13, err := utils.NormalizeISBN(mux.Vars(r)["isbn"])
	if err != nil {
		utils.JSONError(w, "Invalid ISBN", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var book models.Book
	err = h.BookCollection.FindOne(ctx, bson.M{"isbn_13": isbn13}).Decode(&book)
	if err == nil {
		json.NewEncoder(w).Encode(book)
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		utils.JSONError(w, "Failed to fetch book", http.StatusInternalServerError)
		return
	}

	book, err = h.Catalog.Lookup(ctx, isbn13)
	if errors.Is(err, catalog.ErrNotFound) {
		utils.JSONError(w, "ISBN not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.JSONError(w, "Book catalog unavailable", http.StatusBadGateway)
		return
	}

	res, err := h.BookCollection.InsertOne(ctx, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Someone else inserted it between our miss and our insert.
			if err := h.BookCollection.FindOne(ctx, bson.M{"isbn_13": isbn13}).Decode(&book); err != nil {
				utils.JSONError(w, "Failed to fetch book", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(book)
			return
		}
		utils.JSONError(w, "Failed to save book", http.StatusInternalServerError)
		return
	}
	book.ID = res.InsertedID.(primitive.ObjectID)

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Resolve, middleware.UserID(ctx), isbn13)

	json.NewEncoder(w).Encode(book)
}
