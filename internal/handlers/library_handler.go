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
	"bookshelf-api/internal/utils"
)

type LibraryHandler struct {
	LibraryCollection     *mongo.Collection
	LibraryBookCollection *mongo.Collection
	AuditLogger           utils.Logger
}

func NewLibraryHandler(libraryColl, libraryBookColl *mongo.Collection, logger utils.Logger) *LibraryHandler {
	return &LibraryHandler{
		LibraryCollection:     libraryColl,
		LibraryBookCollection: libraryBookColl,
		AuditLogger:           logger,
	}
}

type LibraryRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	IsPublic bool   `json:"is_public"`
}

type LibraryPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	IsPublic *bool   `json:"is_public"`
}

// POST /library
func (h *LibraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req LibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.JSONError(w, "Invalid library name", http.StatusBadRequest)
		return
	}

	now := time.Now()
	library := models.Library{
		UserID:    userID,
		Name:      req.Name,
		Slug:      utils.LibrarySlug(req.Name),
		IsPublic:  req.IsPublic,
		IsDefault: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := h.LibraryCollection.InsertOne(r.Context(), library); err != nil {
		utils.JSONError(w, "Failed to create library", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(r.Context(), models.LibraryEntity, constants.Create, userID, library.Slug)

	json.NewEncoder(w).Encode(map[string]string{
		"message": "Library created",
		"slug":    library.Slug,
	})
}

// GET /library
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	ctx := r.Context()

	cursor, err := h.LibraryCollection.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
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

// PATCH /library/{id}
//
// Rename regenerates the slug, which invalidates any previously shared
// public URL. The is_default:false filter protects the default library and
// makes foreign ownership indistinguishable from absence.
func (h *LibraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	libraryID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, "Invalid library ID", http.StatusBadRequest)
		return
	}

	var patch LibraryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(patch); err != nil {
		utils.JSONError(w, "Invalid library name", http.StatusBadRequest)
		return
	}

	updates := bson.M{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
		updates["slug"] = utils.LibrarySlug(*patch.Name)
	}
	if patch.IsPublic != nil {
		updates["is_public"] = *patch.IsPublic
	}
	if len(updates) == 0 {
		utils.JSONError(w, "No update fields provided", http.StatusBadRequest)
		return
	}
	updates["updated_at"] = time.Now()

	res, err := h.LibraryCollection.UpdateOne(r.Context(),
		bson.M{"_id": libraryID, "user_id": userID, "is_default": false},
		bson.M{"$set": updates},
	)
	if err != nil {
		utils.JSONError(w, "Failed to update library", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		utils.JSONError(w, "Library not found or cannot edit default", http.StatusNotFound)
		return
	}

	h.AuditLogger.Log(r.Context(), models.LibraryEntity, constants.Update, userID, updates)

	json.NewEncoder(w).Encode(map[string]string{"message": "Library updated"})
}

// DELETE /library/{id}
//
// Membership rows cascade before the library itself so a crash between the
// two deletes never strands links pointing at a live library.
func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	libraryID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, "Invalid library ID", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var library models.Library
	err = h.LibraryCollection.FindOne(ctx, bson.M{"_id": libraryID, "user_id": userID}).Decode(&library)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.JSONError(w, "Library not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Failed to delete library", http.StatusInternalServerError)
		return
	}

	if library.IsDefault {
		utils.JSONError(w, "Default library cannot be deleted", http.StatusBadRequest)
		return
	}

	if _, err := h.LibraryBookCollection.DeleteMany(ctx, bson.M{"library_id": library.ID}); err != nil {
		utils.JSONError(w, "Failed to delete library", http.StatusInternalServerError)
		return
	}
	if _, err := h.LibraryCollection.DeleteOne(ctx, bson.M{"_id": library.ID}); err != nil {
		utils.JSONError(w, "Failed to delete library", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(ctx, models.LibraryEntity, constants.Delete, userID, libraryID.Hex())

	json.NewEncoder(w).Encode(map[string]string{"message": "Library deleted"})
}
