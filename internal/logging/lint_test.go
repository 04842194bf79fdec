package logging

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// findProjectRoot walks up from this file to the directory holding go.mod.
func findProjectRoot(t *testing.T) string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to get current file path")
	}
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find go.mod")
		}
		dir = parent
	}
}

// TestNoDirectLogging keeps library packages on the structured logger.
// The command layer writes user-facing output directly and is exempt.
func TestNoDirectLogging(t *testing.T) {
	root := findProjectRoot(t)

	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\bfmt\.Print(f|ln)?\s*\(`),
		regexp.MustCompile(`\blog\.Print(f|ln)?\s*\(`),
		regexp.MustCompile(`\blog\.Fatal(f|ln)?\s*\(`),
		regexp.MustCompile(`(^|[^.\w])print(ln)?\s*\(`),
	}
	exclude := []*regexp.Regexp{
		regexp.MustCompile(`_test\.go$`),
		regexp.MustCompile(`^main\.go$`),
		regexp.MustCompile(`^cmd/`),
		regexp.MustCompile(`^e2e/`),
	}

	var violations []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, ex := range exclude {
			if ex.MatchString(rel) {
				return nil
			}
		}

		f, err := os.Open(path)
		if err != nil {
			t.Logf("warning: could not open %s: %v", rel, err)
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			text := scanner.Text()
			if strings.HasPrefix(strings.TrimSpace(text), "//") {
				continue
			}
			for _, p := range patterns {
				if p.MatchString(text) {
					violations = append(violations, fmt.Sprintf("%s:%d: %s", rel, line, strings.TrimSpace(text)))
				}
			}
		}
		return scanner.Err()
	})
	if err != nil {
		t.Fatalf("walking project: %v", err)
	}

	if len(violations) > 0 {
		t.Errorf("found %d direct logging calls outside cmd/:", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}
