package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
)

// source sets Gradle keeps tests in
var testSourceDirs = []string{"test", "androidTest", "testFixtures"}

// IsSource reports whether the file at rel, relative to the analyzed root,
// should be analyzed.
func (f *FilesConfig) IsSource(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !f.IncludeTests && isTestSource(rel) {
		return false
	}
	if len(f.Include) > 0 && !lo.SomeBy(f.Include, func(p string) bool { return matchPattern(p, rel) }) {
		return false
	}
	return !f.Excluded(rel)
}

// Excluded reports whether rel matches one of the exclude patterns.
func (f *FilesConfig) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	return lo.SomeBy(f.Exclude, func(p string) bool { return matchPattern(p, rel) })
}

// ExcludesDir reports whether everything below the directory rel is
// excluded, so a walk need not descend into it.
func (f *FilesConfig) ExcludesDir(rel string) bool {
	return f.Excluded(path.Join(filepath.ToSlash(rel), dirEntryPlaceholder))
}

// stands for an arbitrary entry of a directory
const dirEntryPlaceholder = "_"

// Collect walks root and returns the source files under it. A root that is
// a regular file is returned as is.
func (f *FilesConfig) Collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.Walk(root, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if rel != "." && (strings.HasPrefix(info.Name(), ".") || f.ExcludesDir(rel)) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !f.FollowSymlinks {
			return nil
		}
		if f.IsSource(rel) {
			files = append(files, filePath)
		}
		return nil
	})

	return files, err
}

func isTestSource(rel string) bool {
	if strings.HasSuffix(rel, "Test.java") {
		return true
	}
	segments := strings.Split(path.Dir(rel), "/")
	return lo.Some(segments, testSourceDirs)
}

// matchPattern matches a slash separated path against a glob where "**"
// spans any number of segments, including none. Malformed patterns match
// nothing.
func matchPattern(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
