package utils_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"bookshelf-api/internal/utils"
)

func TestLibrarySlug(t *testing.T) {
	got := utils.LibrarySlug("My Fantasy Library")

	assert.True(t, strings.HasPrefix(got, "my-fantasy-library-"))
	assert.Regexp(t, regexp.MustCompile(`-[0-9a-f]{6}$`), got)
}

func TestLibrarySlug_Disambiguates(t *testing.T) {
	a := utils.LibrarySlug("Same Name")
	b := utils.LibrarySlug("Same Name")

	assert.NotEqual(t, a, b)
}
