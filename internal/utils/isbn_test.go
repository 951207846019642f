package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/utils"
)

// checksumOK verifies the ISBN-13 weighted-checksum relation over the full
// 13 digits: sum of digit*weight (1,3 alternating) must be divisible by 10.
func checksumOK(isbn13 string) bool {
	if len(isbn13) != 13 {
		return false
	}
	sum := 0
	for i, r := range isbn13 {
		d := int(r - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	return sum%10 == 0
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"10-digit converts to 13", "0132350884", "9780132350884", false},
		{"10-digit with dashes", "0-13-235088-4", "9780132350884", false},
		{"13-digit is identity", "9780132350884", "9780132350884", false},
		{"13-digit with dashes", "978-3-16-148410-0", "9783161484100", false},
		{"13-digit unvalidated checksum passes through", "9780000000001", "9780000000001", false},
		{"too short", "12345", "", true},
		{"too long", "97801323508841", "", true},
		{"empty", "", "", true},
		{"non-digit in 10-digit body", "01323S0884", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utils.NormalizeISBN(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, utils.ErrInvalidISBN)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestISBN10To13_ChecksumRelation(t *testing.T) {
	inputs := []string{"0132350884", "0439420899", "0306406152", "1566199093"}
	for _, in := range inputs {
		got, err := utils.ISBN10To13(in)
		require.NoError(t, err)
		assert.Len(t, got, 13)
		assert.True(t, checksumOK(got), "checksum relation must hold for %s -> %s", in, got)
	}
}
