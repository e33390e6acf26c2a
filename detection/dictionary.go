// Package detection finds known entity names and aliases in prose.
// A single Aho-Corasick automaton holds every surface form, so a text is
// scanned once no matter how many entities are registered.
package detection

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/camden-git/loreboardbackend/models"
)

// Candidate is a known entity offered to the dictionary.
type Candidate struct {
	ID      uint
	Name    string
	Type    models.EntityType
	Aliases []string
}

// CandidateFrom converts a stored entity (with preloaded aliases).
func CandidateFrom(e models.Entity) Candidate {
	return Candidate{
		ID:      e.GetID(),
		Name:    e.GetName(),
		Type:    e.Type(),
		Aliases: models.AliasNames(e.GetAliases()),
	}
}

// DetectedEntity is one name or alias occurrence. Position is the code point
// offset of the first occurrence in the scanned text.
type DetectedEntity struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Type      models.EntityType `json:"type"`
	Position  int               `json:"position"`
	AliasUsed string            `json:"alias_used,omitempty"`
}

// surface is a name or alias bound to its owning candidate.
type surface struct {
	candidate int
	alias     string // empty for the entity name
	pattern   int    // index into Dictionary.patterns, -1 when unmatchable
}

// Dictionary is an immutable compiled set of surface forms.
type Dictionary struct {
	ac           *ahocorasick.Automaton
	patterns     []string
	patternIndex map[string]int
	candidates   []Candidate
	surfaces     []surface
}

// Fold lower-cases s one rune at a time. Rune count is preserved, so an
// offset into the folded string maps to the same code point offset in s.
func Fold(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, r := range s {
		out.WriteRune(unicode.ToLower(r))
	}
	return out.String()
}

// Compile builds a Dictionary. Candidate order is kept and decides the order
// of Detect results.
func Compile(candidates []Candidate) (*Dictionary, error) {
	d := &Dictionary{
		patternIndex: make(map[string]int),
		candidates:   candidates,
	}

	for ci, c := range candidates {
		d.addSurface(ci, c.Name, "")
		for _, alias := range c.Aliases {
			d.addSurface(ci, alias, alias)
		}
	}

	if len(d.patterns) == 0 {
		return d, nil
	}

	// Leftmost kinds propagate matches along failure links, so
	// FindAllOverlapping reports "elena" inside "elena vance" too.
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(d.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	d.ac = automaton
	return d, nil
}

func (d *Dictionary) addSurface(candidate int, text, alias string) {
	key := Fold(text)
	s := surface{candidate: candidate, alias: alias, pattern: -1}
	if key != "" {
		idx, ok := d.patternIndex[key]
		if !ok {
			idx = len(d.patterns)
			d.patterns = append(d.patterns, key)
			d.patternIndex[key] = idx
		}
		s.pattern = idx
	}
	d.surfaces = append(d.surfaces, s)
}

// Len is the number of distinct surface forms.
func (d *Dictionary) Len() int {
	return len(d.patterns)
}

// Detect reports, for each candidate in order, the first occurrence of its
// name and then of each alias. Surfaces that do not occur are omitted.
func (d *Dictionary) Detect(text string) []DetectedEntity {
	detected := []DetectedEntity{}
	if d.ac == nil || text == "" {
		return detected
	}

	folded := Fold(text)
	first := d.firstOccurrences(folded)

	for _, s := range d.surfaces {
		if s.pattern < 0 {
			continue
		}
		pos, ok := first[s.pattern]
		if !ok {
			continue
		}
		c := d.candidates[s.candidate]
		detected = append(detected, DetectedEntity{
			ID:        c.ID,
			Name:      c.Name,
			Type:      c.Type,
			Position:  pos,
			AliasUsed: s.alias,
		})
	}
	return detected
}

// firstOccurrences maps pattern index to the code point offset of its
// earliest match in folded.
func (d *Dictionary) firstOccurrences(folded string) map[int]int {
	matches := d.ac.FindAllOverlapping([]byte(folded))
	first := make(map[int]int, len(matches))
	for _, m := range matches {
		if prev, ok := first[m.PatternID]; ok && prev <= m.Start {
			continue
		}
		first[m.PatternID] = m.Start
	}

	ascii := true
	for i := 0; i < len(folded); i++ {
		if folded[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if !ascii {
		for p, byteOff := range first {
			first[p] = utf8.RuneCountInString(folded[:byteOff])
		}
	}
	return first
}

// Contains reports whether needle occurs in haystack ignoring case.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}
