// Package knol derives stable content keys for vocabulary cards and
// correction requests.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
)

func normalizePart(part string) string {
	p := strings.ReplaceAll(part, "\r\n", "\n")
	p = strings.TrimSpace(strings.ToLower(p))
	return strings.Join(strings.Fields(p), " ")
}

// Normalize joins the card's word, meaning and example after lowercasing
// each and collapsing runs of whitespace.
func Normalize(card domain.Card) string {
	// Newline-joined so "ab"+"c" and "a"+"bc" stay distinct.
	return strings.Join([]string{
		normalizePart(card.Word),
		normalizePart(card.Meaning),
		normalizePart(card.Example),
	}, "\n")
}

// Hash returns the hex SHA-256 of the normalized card.
func Hash(card domain.Card) string {
	return digest(Normalize(card))
}

// RequestKey identifies a correction request by who asked and what they
// asked about, ignoring case and spacing differences in the sentence.
func RequestKey(userID, origin string) string {
	return digest(strings.TrimSpace(userID) + "\n" + normalizePart(origin))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
