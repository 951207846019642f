// Package catalog wraps the external book metadata lookup. The upstream is
// fallible and time-limited; callers distinguish "unknown ISBN" from
// "upstream down" and never retry here.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"bookshelf-api/internal/models"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

var (
	// ErrNotFound means the upstream answered and knows no such ISBN.
	ErrNotFound = errors.New("isbn not found")
	// ErrUnavailable covers timeouts, transport failures and non-200 answers.
	ErrUnavailable = errors.New("catalog unavailable")
)

type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Successful lookups are cached in-process so repeated resolutions of a
	// hot ISBN skip the upstream round trip.
	cache *cache.Cache
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		cache:   cache.New(10*time.Minute, 30*time.Minute),
	}
}

type volumeResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Publisher     string   `json:"publisher"`
			PublishedDate string   `json:"publishedDate"`
			Description   string   `json:"description"`
			Categories    []string `json:"categories"`
			ImageLinks    struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Lookup resolves a canonical ISBN-13 into catalog metadata.
func (c *Client) Lookup(ctx context.Context, isbn13 string) (models.Book, error) {
	if hit, ok := c.cache.Get(isbn13); ok {
		return hit.(models.Book), nil
	}

	reqURL := c.BaseURL + "?" + url.Values{"q": {"isbn:" + isbn13}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.Book{}, ErrUnavailable
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.Book{}, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Book{}, ErrUnavailable
	}

	var data volumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.Book{}, ErrUnavailable
	}

	if data.TotalItems == 0 || len(data.Items) == 0 {
		return models.Book{}, ErrNotFound
	}

	info := data.Items[0].VolumeInfo
	book := models.Book{
		ISBN13:        isbn13,
		Title:         info.Title,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedYear: parseYear(info.PublishedDate),
		Description:   info.Description,
		Categories:    info.Categories,
		CoverURL:      info.ImageLinks.Thumbnail,
	}
	if book.Authors == nil {
		book.Authors = []string{}
	}
	if book.Categories == nil {
		book.Categories = []string{}
	}

	c.cache.Set(isbn13, book, cache.DefaultExpiration)
	return book, nil
}

// parseYear derives the 4-digit year from a date-like string ("2008-08-01",
// "2008"); 0 when absent or unparseable.
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
