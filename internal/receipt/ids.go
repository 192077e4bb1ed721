package receipt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.jetify.com/typeid/v2"
	"golang.org/x/text/unicode/norm"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

const (
	PrefixReceipt Prefix = "receipt"
	PrefixItem    Prefix = "item"
	PrefixPerson  Prefix = "person"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidName     = errors.New("name must not be empty")
)

// NewID generates a K-sortable id such as "item_01h2xcejqtf2nbrexx3vqjhp41".
// It panics if prefix is not a valid TypeID prefix (programming error).
func NewID(prefix Prefix) string {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("receipt: invalid prefix %q: %v", prefix, err))
	}
	return tid.String()
}

// NewReceiptID is the key generator for new receipt documents.
func NewReceiptID() string { return NewID(PrefixReceipt) }

// HasPrefix reports whether s is a TypeID with the given prefix.
func HasPrefix(s string, prefix Prefix) bool {
	tid, err := typeid.Parse(s)
	if err != nil {
		return false
	}
	return tid.Prefix() == string(prefix)
}

// ParseQuantity reads a whole, non-negative count such as "3".
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return n, nil
}

// NormalizeName trims surrounding space and puts the name in NFC form so
// that visually equal names compare equal.
func NormalizeName(name string) (string, error) {
	clean := norm.NFC.String(strings.TrimSpace(name))
	if clean == "" {
		return "", ErrInvalidName
	}
	return clean, nil
}

// Initials returns the upper-cased first letter of every word,
// e.g. "mary jane" → "MJ".
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, unicode.IsSpace) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
