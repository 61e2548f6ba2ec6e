package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/codeshift/pkg/sfc"
	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".hg":          true,
	".svn":         true,
	"dist":         true,
	"coverage":     true,
}

// declarationSuffixes mark TypeScript declaration files, which hold no code
// to migrate.
var declarationSuffixes = []string{".d.ts", ".d.mts", ".d.cts"}

// Discover expands paths into the sorted list of migratable files. Files
// named explicitly are kept whatever their extension; directories are walked
// for known extensions.
func Discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)

	var files []string

	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}

		if !info.IsDir() {
			add(root)

			continue
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if entry.IsDir() {
				if path != root && SkipDir(entry.Name()) {
					return filepath.SkipDir
				}

				return nil
			}

			if Migratable(path) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}

	slices.Sort(files)

	return files, nil
}

// SkipDir reports whether a directory name is excluded from discovery.
func SkipDir(name string) bool {
	return skipDirs[name] || (strings.HasPrefix(name, ".") && len(name) > 1)
}

// Migratable reports whether path has an extension the rules can process.
func Migratable(path string) bool {
	lower := strings.ToLower(path)

	for _, suffix := range declarationSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	if filepath.Ext(lower) == sfc.Extension {
		return true
	}

	_, ok := syntax.DialectForPath(path)

	return ok
}
