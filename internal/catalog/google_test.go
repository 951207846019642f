package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/catalog"
)

const volumePayload = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "Clean Code",
			"authors": ["Robert C. Martin"],
			"publisher": "Prentice Hall",
			"publishedDate": "2008-08-01",
			"description": "A Handbook of Agile Software Craftsmanship",
			"categories": ["Computers"],
			"imageLinks": {"thumbnail": "http://books.example/cover.jpg"}
		}
	}]
}`

func TestClient_Lookup(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "isbn:9780132350884", r.URL.Query().Get("q"))
		w.Write([]byte(volumePayload))
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, time.Second)

	book, err := client.Lookup(context.Background(), "9780132350884")
	require.NoError(t, err)

	assert.Equal(t, "9780132350884", book.ISBN13)
	assert.Equal(t, "Clean Code", book.Title)
	assert.Equal(t, []string{"Robert C. Martin"}, book.Authors)
	assert.Equal(t, "Prentice Hall", book.Publisher)
	assert.Equal(t, 2008, book.PublishedYear)
	assert.Equal(t, []string{"Computers"}, book.Categories)
	assert.Equal(t, "http://books.example/cover.jpg", book.CoverURL)

	// Second lookup is served from the in-process cache.
	_, err = client.Lookup(context.Background(), "9780132350884")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Lookup_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalItems": 0}`))
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, time.Second)

	_, err := client.Lookup(context.Background(), "9780132350884")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestClient_Lookup_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, time.Second)

	_, err := client.Lookup(context.Background(), "9780132350884")
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
}

func TestClient_Lookup_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(volumePayload))
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, 50*time.Millisecond)

	_, err := client.Lookup(context.Background(), "9780132350884")
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
}

func TestClient_Lookup_MissingOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalItems": 1, "items": [{"volumeInfo": {"title": "Obscure Book", "publishedDate": "n.d."}}]}`))
	}))
	defer server.Close()

	client := catalog.NewClient(server.URL, time.Second)

	book, err := client.Lookup(context.Background(), "9780000000002")
	require.NoError(t, err)

	assert.Equal(t, "Obscure Book", book.Title)
	assert.NotNil(t, book.Authors)
	assert.Empty(t, book.Authors)
	assert.NotNil(t, book.Categories)
	assert.Zero(t, book.PublishedYear)
}
