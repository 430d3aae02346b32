// Package alignment scores a learner's transcript against the sentence they
// were asked to read.
//
// Two accuracies are produced, both from a positional word walk over the
// target sentence:
//
//   - Word accuracy counts exact word matches at the same position.
//   - Phonetic accuracy also accepts a word that sounds like the target word:
//     their Double Metaphone codes must overlap and their Jaro-Winkler
//     similarity must reach the phonetic threshold (default 0.70).
//
// Both are purely textual. They describe how closely the transcript follows
// the target and say nothing about acoustics.
package alignment

import (
	"math"
	"strings"

	"github.com/antzucaro/matchr"
)

const defaultPhoneticThreshold = 0.70

// Option is a functional option for configuring an [Aligner].
type Option func(*Aligner)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a phonetically
// similar word to count as a match. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(a *Aligner) {
		a.phoneticThreshold = threshold
	}
}

// Result holds the accuracies of one transcript against one target.
type Result struct {
	// WordAccuracy is the rounded percentage of target words matched exactly.
	WordAccuracy int

	// PhoneticAccuracy is the rounded percentage of target words matched
	// exactly or phonetically. It is always >= WordAccuracy.
	PhoneticAccuracy int

	// TargetWords is the number of words in the normalised target.
	TargetWords int
}

// Aligner compares transcripts with target sentences. It is read-only after
// construction and safe for concurrent use.
type Aligner struct {
	phoneticThreshold float64
}

// New returns an [Aligner] configured with the supplied options.
func New(opts ...Option) *Aligner {
	a := &Aligner{phoneticThreshold: defaultPhoneticThreshold}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Compare aligns spoken against target word by word. An empty target yields
// a zero Result.
func (a *Aligner) Compare(target, spoken string) Result {
	targetWords := Normalize(target)
	if len(targetWords) == 0 {
		return Result{}
	}
	spokenWords := Normalize(spoken)

	var exact, phonetic int
	for i, want := range targetWords {
		if i >= len(spokenWords) {
			break
		}
		got := spokenWords[i]
		switch {
		case got == want:
			exact++
			phonetic++
		case a.soundsAlike(want, got):
			phonetic++
		}
	}

	n := float64(len(targetWords))
	return Result{
		WordAccuracy:     int(math.Round(float64(exact) / n * 100)),
		PhoneticAccuracy: int(math.Round(float64(phonetic) / n * 100)),
		TargetWords:      len(targetWords),
	}
}

// Normalize lowercases text, removes the punctuation marks . , ! and ? and
// splits the remainder on whitespace.
func Normalize(text string) []string {
	text = strings.ToLower(text)
	text = punctuation.Replace(text)
	return strings.Fields(text)
}

var punctuation = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")

func (a *Aligner) soundsAlike(want, got string) bool {
	if !codesOverlap(codes(want), codes(got)) {
		return false
	}
	return matchr.JaroWinkler(want, got, false) >= a.phoneticThreshold
}

// codes returns the non-empty Double Metaphone codes of word.
func codes(word string) []string {
	p, s := matchr.DoubleMetaphone(word)
	out := make([]string, 0, 2)
	if p != "" {
		out = append(out, p)
	}
	if s != "" && s != p {
		out = append(out, s)
	}
	return out
}

func codesOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
