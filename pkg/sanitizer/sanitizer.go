package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// NormalizeSerial canonicalizes an asset serial code. Serials never contain
// whitespace, so any that was typed in is dropped.
func NormalizeSerial(serial string) string {
	p := Pipeline{
		strings.TrimSpace,
		removeSpaces,
	}
	return p.Apply(serial)
}

// NormalizeTaxID trims a tax id but keeps its punctuation, since the renter
// directory stores it as registered.
func NormalizeTaxID(taxID string) string {
	p := Pipeline{
		strings.TrimSpace,
		removeSpaces,
	}
	return p.Apply(taxID)
}

// TaxIDDigits keeps only the digits of a tax id.
func TaxIDDigits(taxID string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, taxID)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeSearchTerm trims a search term and returns nil when nothing is left,
// so blank criteria are treated as absent.
func NormalizeSearchTerm(term *string) *string {
	if term == nil {
		return nil
	}
	s := TrimAndNormalize(*term)
	if s == "" {
		return nil
	}
	return &s
}
