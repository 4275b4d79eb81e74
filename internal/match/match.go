// Package match resolves loosely specified path strings (pasted lists, model
// output, persisted sessions) against the set of files actually present in a
// directory listing. Matching prefers precision over recall: an input that
// cannot be resolved confidently is reported back instead of being guessed.
package match

import (
	"path"
	"sort"
	"strings"

	"github.com/harrison/curator/internal/models"
	"github.com/harrison/curator/internal/pathutil"
)

// Index is a read-only view of a file map prepared for path resolution.
type Index struct {
	keyByComparable map[string]string   // comparable path -> map key
	keysByBasename  map[string][]string // basename -> candidate map keys, sorted
	comparables     []string            // all comparable paths, sorted for deterministic scans
}

// NewIndex builds a resolution index from a file map keyed by
// project-relative path. Records with an empty comparable path fall back to
// normalizing their key.
func NewIndex(files map[string]models.FileRecord) *Index {
	idx := &Index{
		keyByComparable: make(map[string]string, len(files)),
		keysByBasename:  make(map[string][]string),
	}

	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		comparable := files[key].ComparablePath
		if comparable == "" {
			comparable = pathutil.NormalizeForComparison(key)
		}
		if comparable == "" {
			continue
		}
		// First key wins on comparable collisions; keys are scanned sorted,
		// so the choice is stable.
		if _, exists := idx.keyByComparable[comparable]; !exists {
			idx.keyByComparable[comparable] = key
			idx.comparables = append(idx.comparables, comparable)
		}
		base := path.Base(comparable)
		idx.keysByBasename[base] = append(idx.keysByBasename[base], key)
	}

	sort.Strings(idx.comparables)
	return idx
}

// Len returns the number of indexed comparable paths.
func (idx *Index) Len() int {
	return len(idx.comparables)
}

// Resolver resolves inputs against an Index while remembering which keys
// have already been claimed during the same batch operation, so basename
// disambiguation never hands the same file to two different inputs.
type Resolver struct {
	index   *Index
	claimed map[string]bool
}

// NewResolver creates a Resolver for one batch operation.
func NewResolver(index *Index) *Resolver {
	return &Resolver{
		index:   index,
		claimed: make(map[string]bool),
	}
}

// Resolve finds the best matching map key for one input path. Strategies are
// tried strictly in order; the first one that yields a match wins:
//
//  1. Exact comparable-path match.
//  2. Suffix match: an indexed path ends with "/" + input.
//  3. Containment match: the input contains an indexed path as a substring.
//  4. Basename match, disambiguated by the number of path segments shared
//     with the input counted from the end.
//
// The second return value is false when no strategy matched.
func (r *Resolver) Resolve(input string) (string, bool) {
	comparable := pathutil.NormalizeForComparison(input)
	if comparable == "" || r.index.Len() == 0 {
		return "", false
	}

	// Strategy 1: exact comparable match.
	if key, ok := r.index.keyByComparable[comparable]; ok {
		r.claimed[key] = true
		return key, true
	}

	// Strategy 2: an indexed path ends with the input. Covers a shorter
	// relative path pasted against a deeper project layout.
	suffix := "/" + comparable
	for _, candidate := range r.index.comparables {
		if strings.HasSuffix(candidate, suffix) {
			key := r.index.keyByComparable[candidate]
			r.claimed[key] = true
			return key, true
		}
	}

	// Strategy 3: the input contains an indexed path. Covers a full absolute
	// path pasted against a project-relative index.
	for _, candidate := range r.index.comparables {
		if strings.Contains(comparable, candidate) {
			key := r.index.keyByComparable[candidate]
			r.claimed[key] = true
			return key, true
		}
	}

	// Strategy 4: basename match with segment disambiguation.
	if key, ok := r.resolveByBasename(comparable); ok {
		r.claimed[key] = true
		return key, true
	}

	return "", false
}

// ResolveAll resolves a batch of inputs. Matched map keys are returned
// de-duplicated in first-match order; inputs no strategy could resolve come
// back in unmatched for the caller to surface as warnings.
func (r *Resolver) ResolveAll(inputs []string) (matched []string, unmatched []string) {
	seen := make(map[string]bool)
	for _, input := range inputs {
		key, ok := r.Resolve(input)
		if !ok {
			unmatched = append(unmatched, input)
			continue
		}
		if !seen[key] {
			seen[key] = true
			matched = append(matched, key)
		}
	}
	return matched, unmatched
}

// resolveByBasename picks among files sharing the input's basename. A single
// unclaimed candidate is accepted outright; multiple candidates are scored
// by how many trailing path segments they share with the input, and the
// first highest-scoring candidate in sorted order wins, which keeps repeated
// resolutions deterministic.
func (r *Resolver) resolveByBasename(comparable string) (string, bool) {
	base := path.Base(comparable)
	candidates := r.index.keysByBasename[base]
	if len(candidates) == 0 {
		return "", false
	}

	available := make([]string, 0, len(candidates))
	for _, key := range candidates {
		if !r.claimed[key] {
			available = append(available, key)
		}
	}
	if len(available) == 0 {
		return "", false
	}
	if len(available) == 1 {
		return available[0], true
	}

	inputSegments := strings.Split(comparable, "/")
	bestKey := ""
	bestScore := -1
	for _, key := range available {
		score := trailingSegmentScore(inputSegments, strings.Split(pathutil.NormalizeForComparison(key), "/"))
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}
	return bestKey, true
}

// trailingSegmentScore counts how many path segments two paths share when
// walking upward from the filename. The filename itself always matches, so
// the score is at least 1 for basename candidates.
func trailingSegmentScore(a, b []string) int {
	score := 0
	i, j := len(a)-1, len(b)-1
	for i >= 0 && j >= 0 && a[i] == b[j] {
		score++
		i--
		j--
	}
	return score
}
