package scanner

import (
	"path/filepath"
	"strings"

	"github.com/agusespa/diffscope/internal/types"
)

// Classifier sorts repository paths into test files, source files and
// everything else based on suffix conventions. Test suffixes win over
// source suffixes so that .spec.ts files never classify as plain source.
type Classifier struct {
	testSuffixes   []string
	sourceSuffixes []string
	excludeDirs    map[string]struct{}
}

func NewClassifier(testSuffixes, sourceSuffixes, excludeDirs []string) *Classifier {
	excluded := make(map[string]struct{}, len(excludeDirs))
	for _, dir := range excludeDirs {
		excluded[strings.Trim(dir, "/")] = struct{}{}
	}
	return &Classifier{
		testSuffixes:   testSuffixes,
		sourceSuffixes: sourceSuffixes,
		excludeDirs:    excluded,
	}
}

func (c *Classifier) Classify(path string) types.FileKind {
	path = filepath.ToSlash(path)

	segments := strings.Split(path, "/")
	for _, dir := range segments[:len(segments)-1] {
		if _, skip := c.excludeDirs[dir]; skip {
			return types.FileKindOther
		}
	}

	for _, suffix := range c.testSuffixes {
		if strings.HasSuffix(path, suffix) {
			return types.FileKindTest
		}
	}
	for _, suffix := range c.sourceSuffixes {
		if strings.HasSuffix(path, suffix) {
			return types.FileKindSource
		}
	}
	return types.FileKindOther
}
