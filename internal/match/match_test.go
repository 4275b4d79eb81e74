package match

import (
	"testing"

	"github.com/harrison/curator/internal/models"
)

func indexFor(paths ...string) *Index {
	files := make(map[string]models.FileRecord, len(paths))
	for _, p := range paths {
		files[p] = models.FileRecord{Path: p, ComparablePath: p}
	}
	return NewIndex(files)
}

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(indexFor("src/app/main.go", "src/app/util.go"))

	key, ok := r.Resolve("src/app/main.go")
	if !ok || key != "src/app/main.go" {
		t.Errorf("Resolve(exact) = %q, %v, want src/app/main.go, true", key, ok)
	}

	// Differing separators and prefixes still hit the exact strategy.
	key, ok = r.Resolve(`.\src\app\util.go`)
	if !ok || key != "src/app/util.go" {
		t.Errorf("Resolve(denormalized exact) = %q, %v, want src/app/util.go, true", key, ok)
	}
}

func TestResolveSuffixBeatsBasename(t *testing.T) {
	// Two files share a basename; the shorter relative input must resolve by
	// suffix, not by basename disambiguation.
	r := NewResolver(indexFor("src/a/util.ts", "src/b/util.ts"))

	key, ok := r.Resolve("b/util.ts")
	if !ok {
		t.Fatal("Resolve(b/util.ts) did not match")
	}
	if key != "src/b/util.ts" {
		t.Errorf("Resolve(b/util.ts) = %q, want src/b/util.ts", key)
	}
}

func TestResolveContainment(t *testing.T) {
	r := NewResolver(indexFor("src/app/main.go"))

	key, ok := r.Resolve("/home/user/project/src/app/main.go")
	if !ok || key != "src/app/main.go" {
		t.Errorf("Resolve(absolute) = %q, %v, want src/app/main.go, true", key, ok)
	}
}

func TestResolveBasenameSingleCandidate(t *testing.T) {
	r := NewResolver(indexFor("deep/nested/dir/config.yaml", "other/main.go"))

	key, ok := r.Resolve("elsewhere/config.yaml")
	if !ok || key != "deep/nested/dir/config.yaml" {
		t.Errorf("Resolve(basename) = %q, %v, want deep/nested/dir/config.yaml, true", key, ok)
	}
}

func TestResolveBasenameSegmentDisambiguation(t *testing.T) {
	r := NewResolver(indexFor("lib/foo/service.ts", "app/bar/service.ts"))

	// foo/service.ts shares two trailing segments with lib/foo/service.ts
	// but only one with app/bar/service.ts.
	key, ok := r.Resolve("x/foo/service.ts")
	if !ok {
		t.Fatal("Resolve(x/foo/service.ts) did not match")
	}
	if key != "lib/foo/service.ts" {
		t.Errorf("Resolve(x/foo/service.ts) = %q, want lib/foo/service.ts", key)
	}
}

func TestResolveBasenameTieIsDeterministic(t *testing.T) {
	// Both candidates score identically; repeated resolutions must keep
	// returning the same candidate.
	var first string
	for i := 0; i < 10; i++ {
		r := NewResolver(indexFor("lib/foo/service.ts", "app/foo/service.ts"))
		key, ok := r.Resolve("x/foo/service.ts")
		if !ok {
			t.Fatal("Resolve did not match")
		}
		if i == 0 {
			first = key
			continue
		}
		if key != first {
			t.Fatalf("Resolve not deterministic: got %q then %q", first, key)
		}
	}
}

func TestResolveBasenameSkipsClaimedCandidates(t *testing.T) {
	r := NewResolver(indexFor("src/a/util.ts", "src/b/util.ts"))

	// Neither input matches by suffix or containment, so both land in
	// basename disambiguation. The second input must not receive the file
	// already claimed by the first.
	first, ok := r.Resolve("p/util.ts")
	if !ok {
		t.Fatal("first Resolve did not match")
	}
	second, ok := r.Resolve("q/util.ts")
	if !ok {
		t.Fatal("second Resolve did not match")
	}
	if first == second {
		t.Errorf("both inputs resolved to %q; claimed candidate was not skipped", first)
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolver(indexFor("src/app/main.go"))

	if key, ok := r.Resolve("docs/readme.md"); ok {
		t.Errorf("Resolve(unrelated) = %q, want no match", key)
	}
	if _, ok := r.Resolve(""); ok {
		t.Error("Resolve(empty) should not match")
	}
	if _, ok := r.Resolve("   "); ok {
		t.Error("Resolve(whitespace) should not match")
	}
}

func TestResolveAll(t *testing.T) {
	r := NewResolver(indexFor("src/app/main.go", "src/app/util.go"))

	matched, unmatched := r.ResolveAll([]string{
		"src/app/main.go",
		"/abs/path/src/app/main.go", // duplicate target via containment
		"src/app/util.go",
		"missing/file.go",
	})

	if len(matched) != 2 {
		t.Fatalf("matched = %v, want 2 entries", matched)
	}
	if matched[0] != "src/app/main.go" || matched[1] != "src/app/util.go" {
		t.Errorf("matched = %v, want [src/app/main.go src/app/util.go]", matched)
	}
	if len(unmatched) != 1 || unmatched[0] != "missing/file.go" {
		t.Errorf("unmatched = %v, want [missing/file.go]", unmatched)
	}
}

func TestResolveEmptyIndex(t *testing.T) {
	r := NewResolver(NewIndex(nil))
	if _, ok := r.Resolve("src/app/main.go"); ok {
		t.Error("Resolve against an empty index should not match")
	}
}

func TestTrailingSegmentScore(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want int
	}{
		{"filename only", []string{"x", "f.go"}, []string{"y", "f.go"}, 1},
		{"two segments", []string{"x", "foo", "f.go"}, []string{"lib", "foo", "f.go"}, 2},
		{"identical", []string{"a", "b", "f.go"}, []string{"a", "b", "f.go"}, 3},
		{"shorter input", []string{"f.go"}, []string{"a", "b", "f.go"}, 1},
		{"nothing shared", []string{"a.go"}, []string{"b.go"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trailingSegmentScore(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("trailingSegmentScore(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
