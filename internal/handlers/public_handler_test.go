package handlers_test

import (
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

func TestPublicHandler_ViewLibrary(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("private library stays hidden", func(mt *mtest.T) {
		handler := handlers.PublicHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.libraries", mtest.FirstBatch))

		router := mux.NewRouter()
		router.HandleFunc("/public/library/{slug}", handler.ViewLibrary).Methods("GET")

		req := httptest.NewRequest(http.MethodGet, "/public/library/secret-shelf-9f1c2a", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusNotFound {
			t.Errorf("expected status NotFound, got %v", res.Status)
		}
	})

	mt.Run("public view hides personal fields", func(mt *mtest.T) {
		handler := handlers.PublicHandler{
			LibraryCollection:     mt.Coll,
			LibraryBookCollection: mt.Coll,
		}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.libraries", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Summer Reads"},
				{Key: "slug", Value: "summer-reads-a1b2c3"},
				{Key: "is_public", Value: true},
			}),
			mtest.CreateCursorResponse(0, "test.library_books", mtest.FirstBatch, bson.D{
				{Key: "title", Value: "Dune"},
				{Key: "authors", Value: bson.A{"Frank Herbert"}},
				{Key: "genres", Value: bson.A{"Sci-fi"}},
			}),
		)

		router := mux.NewRouter()
		router.HandleFunc("/public/library/{slug}", handler.ViewLibrary).Methods("GET")

		req := httptest.NewRequest(http.MethodGet, "/public/library/summer-reads-a1b2c3", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		res := w.Result()
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			t.Errorf("expected status OK, got %v", res.Status)
		}

		var body struct {
			LibraryName string                   `json:"library_name"`
			Items       []map[string]interface{} `json:"items"`
		}
		json.NewDecoder(res.Body).Decode(&body)

		if body.LibraryName != "Summer Reads" {
			t.Errorf("expected library name Summer Reads, got %q", body.LibraryName)
		}
		if len(body.Items) != 1 {
			t.Fatalf("expected one item, got %d", len(body.Items))
		}
		if body.Items[0]["title"] != "Dune" {
			t.Errorf("expected title Dune, got %v", body.Items[0]["title"])
		}
		for _, hidden := range []string{"notes", "rating", "read_status", "user_id"} {
			if _, ok := body.Items[0][hidden]; ok {
				t.Errorf("field %q must not appear in the public view", hidden)
			}
		}
	})
}
