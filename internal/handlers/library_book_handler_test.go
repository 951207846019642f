package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"bookshelf-api/internal/handlers"
)

func TestLibraryBookHandler_AddBooks(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("invalid library id", func(mt *mtest.T) {
		handler := handlers.LibraryBookHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		router := mux.NewRouter()
		router.HandleFunc("/librarybooks/{libraryId}", handler.AddBooks).Methods("POST")

		reqBytes, _ := json.Marshal(handlers.LibraryBooksRequest{UserBookIDs: []string{primitive.NewObjectID().Hex()}})
		req := httptest.NewRequest(http.MethodPost, "/librarybooks/not-hex", bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})

	mt.Run("library owned by someone else", func(mt *mtest.T) {
		handler := handlers.LibraryBookHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.libraries", mtest.FirstBatch))

		router := mux.NewRouter()
		router.HandleFunc("/librarybooks/{libraryId}", handler.AddBooks).Methods("POST")

		reqBytes, _ := json.Marshal(handlers.LibraryBooksRequest{UserBookIDs: []string{primitive.NewObjectID().Hex()}})
		req := httptest.NewRequest(http.MethodPost, "/librarybooks/"+primitive.NewObjectID().Hex(), bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusForbidden {
			t.Errorf("expected status Forbidden, got %v", res.Status)
		}
	})

	mt.Run("malformed annotation id", func(mt *mtest.T) {
		handler := handlers.LibraryBookHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		libraryID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.libraries", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: libraryID},
			{Key: "name", Value: "Sci-fi"},
		}))

		router := mux.NewRouter()
		router.HandleFunc("/librarybooks/{libraryId}", handler.AddBooks).Methods("POST")

		reqBytes := []byte(`{"user_book_ids": ["not-a-hex-id"]}`)
		req := httptest.NewRequest(http.MethodPost, "/librarybooks/"+libraryID.Hex(), bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})
}

func TestLibraryBookHandler_RemoveBooks(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("empty id list is a no-op", func(mt *mtest.T) {
		handler := handlers.LibraryBookHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		libraryID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "test.libraries", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: libraryID},
			{Key: "name", Value: "Sci-fi"},
		}))

		router := mux.NewRouter()
		router.HandleFunc("/librarybooks/{libraryId}", handler.RemoveBooks).Methods("DELETE")

		reqBytes := []byte(`{"user_book_ids": []}`)
		req := httptest.NewRequest(http.MethodDelete, "/librarybooks/"+libraryID.Hex(), bytes.NewReader(reqBytes))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Errorf("expected status OK, got %v", res.Status)
		}

		var body map[string]int64
		json.NewDecoder(res.Body).Decode(&body)
		if body["removed"] != 0 {
			t.Errorf("expected 0 removals, got %d", body["removed"])
		}
	})
}

func TestLibraryBookHandler_MissingLibraries(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("missing annotation id", func(mt *mtest.T) {
		handler := handlers.LibraryBookHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		router := mux.NewRouter()
		router.HandleFunc("/librarybooks/missing-libraries", handler.MissingLibraries).Methods("GET")

		req := httptest.NewRequest(http.MethodGet, "/librarybooks/missing-libraries", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", res.Status)
		}
	})

	mt.Run("returns libraries without the annotation", func(mt *mtest.T) {
		handler := handlers.LibraryBookHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.libraries", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "name", Value: "Unread Pile"},
			{Key: "slug", Value: "unread-pile-a1b2c3"},
		}))

		router := mux.NewRouter()
		router.HandleFunc("/librarybooks/missing-libraries", handler.MissingLibraries).Methods("GET")

		req := httptest.NewRequest(http.MethodGet, "/librarybooks/missing-libraries?user_book_id="+primitive.NewObjectID().Hex(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Errorf("expected status OK, got %v", res.Status)
		}
	})
}
