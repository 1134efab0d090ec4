package main

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreRules is a parsed .gitignore. Later rules override earlier ones.
type ignoreRules []gitignore.Pattern

// loadGitignore parses .gitignore from the module root. A missing file
// yields no rules.
func loadGitignore(root string) ignoreRules {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()
	return parseGitignore(f)
}

func parseGitignore(r io.Reader) ignoreRules {
	var rules ignoreRules
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		rules = append(rules, gitignore.ParsePattern(line, nil))
	}
	return rules
}

// Ignored reports whether the directory rel, relative to the module root,
// or one of its parents is ignored.
func (rs ignoreRules) Ignored(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || len(rs) == 0 {
		return false
	}
	m := gitignore.NewMatcher(rs)
	parts := strings.Split(rel, "/")
	for i := range parts {
		if m.Match(parts[:i+1], true) {
			return true
		}
	}
	return false
}
