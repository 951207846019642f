package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"bookshelf-api/internal/constants"
	"bookshelf-api/internal/models"
	"bookshelf-api/internal/utils"
)

var validate = validator.New()

type AuthHandler struct {
	UserCollection    *mongo.Collection
	LibraryCollection *mongo.Collection
	AuditLogger       utils.Logger
}

func NewAuthHandler(userColl, libraryColl *mongo.Collection, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		UserCollection:    userColl,
		LibraryCollection: libraryColl,
		AuditLogger:       logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// POST /auth/register
func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.JSONError(w, "Invalid email or password", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Email:     req.Email,
		Password:  string(hash),
		CreatedAt: time.Now(),
	}

	res, err := a.UserCollection.InsertOne(ctx, user)
	if err != nil {
		// Unique email index makes the existence check race-free.
		if mongo.IsDuplicateKeyError(err) {
			utils.JSONError(w, "User exists", http.StatusBadRequest)
			return
		}
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	userID := res.InsertedID.(primitive.ObjectID).Hex()

	// Every account owns exactly one default library, created here. The
	// partial-unique (user_id, is_default=true) index backs the invariant.
	now := time.Now()
	defaultLib := models.Library{
		UserID:    userID,
		Name:      models.DefaultLibraryName,
		Slug:      utils.LibrarySlug(models.DefaultLibraryName),
		IsPublic:  false,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := a.LibraryCollection.InsertOne(ctx, defaultLib); err != nil && !mongo.IsDuplicateKeyError(err) {
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	a.AuditLogger.Log(ctx, models.UserEntity, constants.Register, userID, req.Email)

	json.NewEncoder(w).Encode(map[string]string{"message": "Registered"})
}

// POST /auth/login
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var user models.User
	err := a.UserCollection.FindOne(r.Context(), bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex())
	if err != nil {
		utils.JSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(LoginResponse{AccessToken: token, TokenType: "bearer"})
}
