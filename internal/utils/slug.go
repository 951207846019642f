package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// LibrarySlug builds the public URL slug for a library: kebab-cased name
// plus a short random suffix to guard against collisions. The unique index
// on the slug field is the real enforcement.
func LibrarySlug(name string) string {
	id := uuid.New()
	return slug.Make(name) + "-" + hex.EncodeToString(id[:])[:6]
}
