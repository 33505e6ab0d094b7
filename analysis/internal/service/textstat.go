package service

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	paragraphSplitRE = regexp.MustCompile(`\r?\n\s*\r?\n`)
	wordRE           = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	tokenStripRE     = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// TextStats holds the statistics computed over one decoded text.
type TextStats struct {
	Paragraphs int
	Words      int
	Characters int
}

// ComputeStats counts paragraphs (blank-line separated runs of text), words
// (maximal runs of letters, digits and underscores) and characters (runes,
// not bytes).
func ComputeStats(text string) TextStats {
	stats := TextStats{Characters: utf8.RuneCountInString(text)}

	if trimmed := strings.TrimSpace(text); trimmed != "" {
		for _, part := range paragraphSplitRE.Split(trimmed, -1) {
			if strings.TrimSpace(part) != "" {
				stats.Paragraphs++
			}
		}
	}

	stats.Words = len(wordRE.FindAllString(text, -1))
	return stats
}

// Tokenize case-folds the text and collapses punctuation runs into single
// separators, producing the word stream fed to the renderer.
func Tokenize(text string) []string {
	cleaned := tokenStripRE.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(cleaned)
}

// hashText digests the decoded text. This namespace is independent from the
// file store's raw-byte hash.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
