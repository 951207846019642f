package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf-api/internal/constants"
	"bookshelf-api/internal/middleware"
	"bookshelf-api/internal/models"
	"bookshelf-api/internal/query"
	"bookshelf-api/internal/utils"
)

type LibraryBookHandler struct {
	LibraryCollection     *mongo.Collection
	LibraryBookCollection *mongo.Collection
	AuditLogger           utils.Logger
}

func NewLibraryBookHandler(libraryColl, libraryBookColl *mongo.Collection, logger utils.Logger) *LibraryBookHandler {
	return &LibraryBookHandler{
		LibraryCollection:     libraryColl,
		LibraryBookCollection: libraryBookColl,
		AuditLogger:           logger,
	}
}

type LibraryBooksRequest struct {
	UserBookIDs []string `json:"user_book_ids"`
}

type librarySummary struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	IsPublic  bool               `json:"is_public"`
	IsDefault bool               `json:"is_default"`
}

// memberRow is a membership joined through its annotation to the book.
type memberRow struct {
	ID       primitive.ObjectID `bson:"_id" json:"membership_id"`
	AddedAt  time.Time          `bson:"added_at" json:"added_at"`
	UserBook models.UserBook    `bson:"user_book" json:"user_book"`
	Book     models.Book        `bson:"book" json:"book"`
}

// ownedLibrary loads a library only when the caller owns it. Absence and
// foreign ownership answer the same way so library ids cannot be probed.
func (h *LibraryBookHandler) ownedLibrary(w http.ResponseWriter, r *http.Request) (models.Library, bool) {
	userID := middleware.UserID(r.Context())

	libraryID, err := primitive.ObjectIDFromHex(mux.Vars(r)["libraryId"])
	if err != nil {
		utils.JSONError(w, "Invalid library ID", http.StatusBadRequest)
		return models.Library{}, false
	}

	var library models.Library
	err = h.LibraryCollection.FindOne(r.Context(), bson.M{"_id": libraryID, "user_id": userID}).Decode(&library)
	if err != nil {
		utils.JSONError(w, "Access denied", http.StatusForbidden)
		return models.Library{}, false
	}
	return library, true
}

// POST /librarybooks/{libraryId}
//
// Idempotent bulk add: the set difference against existing links is computed
// store-side, and only the missing links are inserted. The unordered insert
// plus the unique (library_id, user_book_id) index make concurrent retries
// converge instead of erroring.
func (h *LibraryBookHandler) AddBooks(w http.ResponseWriter, r *http.Request) {
	library, ok := h.ownedLibrary(w, r)
	if !ok {
		return
	}

	var req LibraryBooksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	ids, err := utils.ToObjectIDs(req.UserBookIDs)
	if err != nil {
		utils.JSONError(w, "Invalid annotation ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	missing, err := utils.FindMissingIDs(ctx, h.LibraryBookCollection, library.ID, ids)
	if err != nil {
		utils.JSONError(w, "Failed to add books", http.StatusInternalServerError)
		return
	}

	if len(missing) > 0 {
		now := time.Now()
		docs := make([]interface{}, 0, len(missing))
		for _, userBookID := range missing {
			docs = append(docs, models.LibraryBook{
				LibraryID:  library.ID,
				UserBookID: userBookID,
				AddedAt:    now,
			})
		}

		_, err = h.LibraryBookCollection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			utils.JSONError(w, "Failed to add books", http.StatusInternalServerError)
			return
		}
	}

	h.AuditLogger.Log(ctx, models.LibraryBookEntity, constants.AddBooks, library.UserID, req.UserBookIDs)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Books added",
		"added":   len(missing),
	})
}

// DELETE /librarybooks/{libraryId}
//
// Ids that were never members are silently ignored.
func (h *LibraryBookHandler) RemoveBooks(w http.ResponseWriter, r *http.Request) {
	library, ok := h.ownedLibrary(w, r)
	if !ok {
		return
	}

	var req LibraryBooksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	ids, err := utils.ToObjectIDs(req.UserBookIDs)
	if err != nil {
		utils.JSONError(w, "Invalid annotation ID", http.StatusBadRequest)
		return
	}
	if len(ids) == 0 {
		json.NewEncoder(w).Encode(map[string]int64{"removed": 0})
		return
	}

	res, err := h.LibraryBookCollection.DeleteMany(r.Context(), bson.M{
		"library_id":   library.ID,
		"user_book_id": bson.M{"$in": ids},
	})
	if err != nil {
		utils.JSONError(w, "Failed to remove books", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(r.Context(), models.LibraryBookEntity, constants.RemoveBooks, library.UserID, req.UserBookIDs)

	json.NewEncoder(w).Encode(map[string]int64{"removed": res.DeletedCount})
}

// GET /librarybooks/{libraryId}
//
// Three-way join (memberships -> user_books -> books) with the same
// filter/sort/pagination contract as GET /books, filters applied to the
// joined annotation and book fields.
func (h *LibraryBookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	library, ok := h.ownedLibrary(w, r)
	if !ok {
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
		{{Key: "$unwind", Value: bson.M{"path": "$user_book", "preserveNullAndEmptyArrays": true}}},
	}

	joined := bson.M{}
	page.ApplyFilters(joined, "user_book.")
	if len(joined) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: joined}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "books",
			"localField":   "user_book.book_id",
			"foreignField": "_id",
			"as":           "book",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$book", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$sort", Value: page.SortStage("user_book.")}},
		bson.D{{Key: "$limit", Value: page.Limit + 1}},
	)

	ctx := r.Context()
	cursor, err := h.LibraryBookCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.JSONError(w, "Failed to list library books", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var rows []memberRow
	if err := cursor.All(ctx, &rows); err != nil {
		utils.JSONError(w, "Failed to decode library books", http.StatusInternalServerError)
		return
	}

	for _, row := range rows {
		if row.UserBook.ID.IsZero() || row.Book.ID.IsZero() {
			utils.JSONError(w, "Library references a missing annotation or book", http.StatusInternalServerError)
			return
		}
	}

	items, hasMore := query.Trim(rows, page.Limit)
	var next *time.Time
	if hasMore && len(items) > 0 {
		next = &items[len(items)-1].UserBook.UpdatedAt
	}

	json.NewEncoder(w).Encode(struct {
		Library librarySummary `json:"library"`
		query.Envelope
	}{
		Library: librarySummary{
			ID:        library.ID,
			Name:      library.Name,
			IsPublic:  library.IsPublic,
			IsDefault: library.IsDefault,
		},
		Envelope: query.NewEnvelope(items, next, page.Limit),
	})
}

// GET /librarybooks/missing-libraries?user_book_id=...
//
// Anti-join: every library the user owns that has no membership row for the
// given annotation. Drives the "add to other libraries" picker.
func (h *LibraryBookHandler) MissingLibraries(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	userBookID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("user_book_id"))
	if err != nil {
		utils.JSONError(w, "Invalid annotation ID", http.StatusBadRequest)
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "library_books",
			"let":  bson.M{"lid": "$_id"},
			"pipeline": mongo.Pipeline{
				{{Key: "$match", Value: bson.M{
					"$expr": bson.M{"$and": bson.A{
						bson.M{"$eq": bson.A{"$library_id", "$$lid"}},
						bson.M{"$eq": bson.A{"$user_book_id", userBookID}},
					}},
				}}},
			},
			"as": "links",
		}}},
		{{Key: "$match", Value: bson.M{"links": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"links": 0}}},
	}

	ctx := r.Context()
	cursor, err := h.LibraryCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.JSONError(w, "Failed to list libraries", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	libraries := []models.Library{}
	if err := cursor.All(ctx, &libraries); err != nil {
		utils.JSONError(w, "Failed to decode libraries", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(libraries)
}
