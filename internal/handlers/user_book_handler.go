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

type UserBookHandler struct {
	BookCollection        *mongo.Collection
	UserBookCollection    *mongo.Collection
	LibraryBookCollection *mongo.Collection
	AuditLogger           utils.Logger
}

func NewUserBookHandler(bookColl, userBookColl, libraryBookColl *mongo.Collection, logger utils.Logger) *UserBookHandler {
	return &UserBookHandler{
		BookCollection:        bookColl,
		UserBookCollection:    userBookColl,
		LibraryBookCollection: libraryBookColl,
		AuditLogger:           logger,
	}
}

type UserBookRequest struct {
	Genres        []string `json:"genres"`
	Tags          []string `json:"tags"`
	PersonalNotes string   `json:"personal_notes"`
	Rating        *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	ReadStatus    string   `json:"read_status" validate:"omitempty,oneof=unread reading completed"`
}

type UserBookPatch struct {
	Genres        *[]string `json:"genres"`
	Tags          *[]string `json:"tags"`
	PersonalNotes *string   `json:"personal_notes"`
	Rating        *int      `json:"rating" validate:"omitempty,min=1,max=5"`
	ReadStatus    *string   `json:"read_status" validate:"omitempty,oneof=unread reading completed"`
}

type DeleteUserBooksRequest struct {
	UserBookIDs []string `json:"user_book_ids"`
}

// annotatedUserBook is a user_books row joined to its catalog book.
type annotatedUserBook struct {
	models.UserBook `bson:",inline"`
	Book            models.Book `bson:"book" json:"book"`
}

// POST /books/{isbn}
//
// Upserts the (user, book) annotation. The book must already be in the local
// catalog; attaching an unknown ISBN is a 404 telling the caller to look it
// up first. Repeated calls with the same fields converge to the same row.
func (h *UserBookHandler) Attach(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	isbn13, err := utils.NormalizeISBN(mux.Vars(r)["isbn"])
	if err != nil {
		utils.JSONError(w, "Invalid ISBN", http.StatusBadRequest)
		return
	}

	var req UserBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.JSONError(w, "Invalid annotation fields", http.StatusBadRequest)
		return
	}
	if req.Genres == nil {
		req.Genres = []string{}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	if req.ReadStatus == "" {
		req.ReadStatus = string(models.StatusUnread)
	}

	ctx := r.Context()

	var book models.Book
	err = h.BookCollection.FindOne(ctx, bson.M{"isbn_13": isbn13}).Decode(&book)
	if err != nil {
		utils.JSONError(w, "Book not found. Lookup ISBN first.", http.StatusNotFound)
		return
	}

	searchBlob := utils.BuildSearchBlob(book, req.Genres, req.Tags, req.PersonalNotes)

	set := bson.M{
		"genres":         req.Genres,
		"tags":           req.Tags,
		"personal_notes": req.PersonalNotes,
		"read_status":    req.ReadStatus,
		"search_blob":    searchBlob,
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"book_id":    book.ID,
			"created_at": time.Now(),
		},
		"$currentDate": bson.M{"updated_at": true},
	}
	if req.Rating != nil {
		set["rating"] = *req.Rating
	} else {
		update["$unset"] = bson.M{"rating": ""}
	}

	filter := bson.M{"user_id": userID, "book_id": book.ID}
	res, err := h.UserBookCollection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// Two concurrent first-attaches can race the unique (user_id, book_id)
		// index; the loser re-applies as a plain update.
		if !mongo.IsDuplicateKeyError(err) {
			utils.JSONError(w, "Failed to save annotation", http.StatusInternalServerError)
			return
		}
		if _, err := h.UserBookCollection.UpdateOne(ctx, filter, update); err != nil {
			utils.JSONError(w, "Failed to save annotation", http.StatusInternalServerError)
			return
		}
	}

	h.AuditLogger.Log(ctx, models.UserBookEntity, constants.Attach, userID, isbn13)

	if res != nil && res.UpsertedCount > 0 {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Book added to collection"})
}

// GET /books
//
// Filtered, sorted, cursor-paginated listing of the user's annotations,
// each joined to its catalog book through a $lookup.
func (h *UserBookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	page, err := query.ParsePage(r.URL.Query())
	if err != nil {
		utils.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	match := bson.M{"user_id": userID}
	page.ApplyFilters(match, "")

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "books",
			"localField":   "book_id",
			"foreignField": "_id",
			"as":           "book",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$book", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$sort", Value: page.SortStage("")}},
		{{Key: "$limit", Value: page.Limit + 1}},
	}

	ctx := r.Context()
	cursor, err := h.UserBookCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.JSONError(w, "Failed to list books", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var rows []annotatedUserBook
	if err := cursor.All(ctx, &rows); err != nil {
		utils.JSONError(w, "Failed to decode books", http.StatusInternalServerError)
		return
	}

	for _, row := range rows {
		// Referential integrity bug, not a user error: every annotation must
		// point at an existing catalog row.
		if row.Book.ID.IsZero() {
			utils.JSONError(w, "Annotation references a missing book", http.StatusInternalServerError)
			return
		}
	}

	items, hasMore := query.Trim(rows, page.Limit)
	var next *time.Time
	if hasMore && len(items) > 0 {
		next = &items[len(items)-1].UpdatedAt
	}

	json.NewEncoder(w).Encode(query.NewEnvelope(items, next, page.Limit))
}

// PATCH /books/{id}
//
// Partial update scoped to the owner. The search blob is rebuilt from the
// merged annotation plus the joined book as the final write step, so a crash
// mid-sequence leaves stale-but-valid data.
func (h *UserBookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	annID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, "Invalid annotation ID", http.StatusBadRequest)
		return
	}

	var patch UserBookPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(patch); err != nil {
		utils.JSONError(w, "Invalid annotation fields", http.StatusBadRequest)
		return
	}
	if patch.Genres == nil && patch.Tags == nil && patch.PersonalNotes == nil &&
		patch.Rating == nil && patch.ReadStatus == nil {
		utils.JSONError(w, "No update fields provided", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Absent and owned-by-another-user look identical to the caller.
	var ub models.UserBook
	err = h.UserBookCollection.FindOne(ctx, bson.M{"_id": annID, "user_id": userID}).Decode(&ub)
	if err != nil {
		utils.JSONError(w, "Annotation not found", http.StatusNotFound)
		return
	}

	if patch.Genres != nil {
		ub.Genres = *patch.Genres
	}
	if patch.Tags != nil {
		ub.Tags = *patch.Tags
	}
	if patch.PersonalNotes != nil {
		ub.PersonalNotes = *patch.PersonalNotes
	}
	if patch.Rating != nil {
		ub.Rating = patch.Rating
	}
	if patch.ReadStatus != nil {
		ub.ReadStatus = models.ReadStatus(*patch.ReadStatus)
	}
	if ub.Genres == nil {
		ub.Genres = []string{}
	}
	if ub.Tags == nil {
		ub.Tags = []string{}
	}

	var book models.Book
	err = h.BookCollection.FindOne(ctx, bson.M{"_id": ub.BookID}).Decode(&book)
	if err != nil {
		utils.JSONError(w, "Annotation references a missing book", http.StatusInternalServerError)
		return
	}

	set := bson.M{
		"genres":         ub.Genres,
		"tags":           ub.Tags,
		"personal_notes": ub.PersonalNotes,
		"read_status":    ub.ReadStatus,
		"search_blob":    utils.BuildSearchBlob(book, ub.Genres, ub.Tags, ub.PersonalNotes),
	}
	if ub.Rating != nil {
		set["rating"] = *ub.Rating
	}

	_, err = h.UserBookCollection.UpdateOne(ctx,
		bson.M{"_id": annID, "user_id": userID},
		bson.M{"$set": set, "$currentDate": bson.M{"updated_at": true}},
	)
	if err != nil {
		utils.JSONError(w, "Failed to update annotation", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(ctx, models.UserBookEntity, constants.Update, userID, annID.Hex())

	json.NewEncoder(w).Encode(map[string]string{"message": "Annotation updated"})
}

// DELETE /books
//
// Bulk delete. Membership links cascade first so a crash mid-sequence can
// never leave a membership pointing at a deleted annotation.
func (h *UserBookHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req DeleteUserBooksRequest
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
		json.NewEncoder(w).Encode(map[string]int64{"deleted": 0})
		return
	}

	ctx := r.Context()

	// Scope to rows the user actually owns before touching memberships.
	cursor, err := h.UserBookCollection.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "user_id": userID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		utils.JSONError(w, "Failed to delete annotations", http.StatusInternalServerError)
		return
	}

	var owned []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &owned); err != nil {
		utils.JSONError(w, "Failed to delete annotations", http.StatusInternalServerError)
		return
	}
	if len(owned) == 0 {
		json.NewEncoder(w).Encode(map[string]int64{"deleted": 0})
		return
	}

	ownedIDs := make([]primitive.ObjectID, 0, len(owned))
	for _, row := range owned {
		ownedIDs = append(ownedIDs, row.ID)
	}

	if _, err := h.LibraryBookCollection.DeleteMany(ctx, bson.M{"user_book_id": bson.M{"$in": ownedIDs}}); err != nil {
		utils.JSONError(w, "Failed to delete annotations", http.StatusInternalServerError)
		return
	}

	res, err := h.UserBookCollection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ownedIDs}, "user_id": userID})
	if err != nil {
		utils.JSONError(w, "Failed to delete annotations", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(ctx, models.UserBookEntity, constants.Delete, userID, req.UserBookIDs)

	json.NewEncoder(w).Encode(map[string]int64{"deleted": res.DeletedCount})
}
