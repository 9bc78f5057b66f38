package keyword

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// hangulRun matches runs of Hangul syllables, at most 10 per match.
var hangulRun = regexp.MustCompile(`[가-힣]{2,10}`)

// particles are trailing markers stripped from a run to form an extra candidate.
const particles = "을를이가은는"

// Profile tunes extraction for one consumer.
type Profile struct {
	Name           string
	Stopwords      map[string]struct{}
	PrefixRunes    int
	PrefixMinRunes int
	Cap            int
}

// SearchProfile feeds the Tour API keyword search.
var SearchProfile = Profile{
	Name:           "search",
	Stopwords:      toSet("오늘", "내일", "어제", "그곳", "저곳", "어떻게", "알려", "추천"),
	PrefixRunes:    30,
	PrefixMinRunes: 2,
	Cap:            6,
}

// LocationProfile feeds place-name geocoding.
var LocationProfile = Profile{
	Name:        "location",
	Stopwords:   toSet("오늘", "내일", "어제", "그곳", "저곳"),
	PrefixRunes: 40,
	Cap:         8,
}

// WithStopwords returns a copy of p whose stopword set also contains extra.
func (p Profile) WithStopwords(extra ...string) Profile {
	merged := make(map[string]struct{}, len(p.Stopwords)+len(extra))
	for w := range p.Stopwords {
		merged[w] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.TrimSpace(w); w != "" {
			merged[w] = struct{}{}
		}
	}
	p.Stopwords = merged
	return p
}

// Extract returns candidate search terms from text, longest first, without duplicates.
// The leading entry is usually a prefix of the whole sentence.
func Extract(text string, p Profile) []string {
	t := strings.TrimSpace(text)
	if utf8.RuneCountInString(t) < 2 {
		return nil
	}

	var candidates []string
	for _, run := range hangulRun.FindAllString(t, -1) {
		if _, stop := p.Stopwords[run]; stop {
			continue
		}
		if last, size := utf8.DecodeLastRuneInString(run); strings.ContainsRune(particles, last) {
			candidates = append(candidates, run[:len(run)-size])
		}
		candidates = append(candidates, run)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i]) > utf8.RuneCountInString(candidates[j])
	})

	seen := make(map[string]struct{}, len(candidates)+1)
	unique := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		if _, dup := seen[c]; dup || utf8.RuneCountInString(c) < 2 {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}

	prefix := strings.TrimSpace(TruncateRunes(t, p.PrefixRunes))
	if _, dup := seen[prefix]; prefix != "" && !dup && utf8.RuneCountInString(prefix) >= p.PrefixMinRunes {
		unique = append([]string{prefix}, unique...)
	}

	if p.Cap > 0 && len(unique) > p.Cap {
		unique = unique[:p.Cap]
	}
	return unique
}

// ContainsAny reports whether text contains any of the given keywords as a substring.
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// TruncateRunes returns the first n runes of s. n <= 0 returns s unchanged.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
