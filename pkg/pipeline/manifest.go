package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ManifestName is the npm package manifest looked up for rule gating.
const ManifestName = "package.json"

// manifest holds the dependency sections of a package.json.
type manifest struct {
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// ReadManifest returns the declared version range of every dependency in a
// package.json. Runtime dependencies win over dev and peer entries.
func ReadManifest(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest

	err = json.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	deps := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies)+len(m.PeerDependencies))

	for _, section := range []map[string]string{m.PeerDependencies, m.DevDependencies, m.Dependencies} {
		for name, version := range section {
			deps[name] = version
		}
	}

	return deps, nil
}

// FindManifest returns the nearest package.json at or above dir.
func FindManifest(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, ManifestName)

		info, statErr := os.Stat(candidate)
		if statErr == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}

		dir = parent
	}
}

// manifestCache memoizes dependency maps per directory for one run.
type manifestCache struct {
	byDir map[string]map[string]string
	mu    sync.Mutex
}

func newManifestCache() *manifestCache {
	return &manifestCache{byDir: make(map[string]map[string]string)}
}

// forFile returns the dependencies declared by the manifest governing path.
// A file outside any npm package yields nil.
func (mc *manifestCache) forFile(path string) (map[string]string, error) {
	dir := filepath.Dir(path)

	mc.mu.Lock()
	deps, ok := mc.byDir[dir]
	mc.mu.Unlock()

	if ok {
		return deps, nil
	}

	manifestPath, found := FindManifest(dir)
	if found {
		var err error

		deps, err = ReadManifest(manifestPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	mc.mu.Lock()
	mc.byDir[dir] = deps
	mc.mu.Unlock()

	return deps, nil
}
