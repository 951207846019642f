package utils

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidISBN = errors.New("invalid isbn")

// ISBN10To13 converts a separator-free ISBN-10 to its ISBN-13 form:
// "978" + the first nine digits, plus a recomputed weighted check digit
// (alternating weights 1 and 3, check = (10 - sum mod 10) mod 10).
func ISBN10To13(isbn10 string) (string, error) {
	if len(isbn10) != 10 {
		return "", ErrInvalidISBN
	}

	core := "978" + isbn10[:9]
	sum := 0
	for i, r := range core {
		if r < '0' || r > '9' {
			return "", ErrInvalidISBN
		}
		d := int(r - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}

	check := (10 - sum%10) % 10
	return core + strconv.Itoa(check), nil
}

// NormalizeISBN strips separators and canonicalizes to ISBN-13. A 13-char
// input is returned as-is without checksum re-validation.
func NormalizeISBN(isbn string) (string, error) {
	cleaned := strings.ReplaceAll(isbn, "-", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimSpace(cleaned)

	switch len(cleaned) {
	case 10:
		return ISBN10To13(cleaned)
	case 13:
		return cleaned, nil
	}
	return "", ErrInvalidISBN
}
