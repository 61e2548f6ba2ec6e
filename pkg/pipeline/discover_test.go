package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
)

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"src/a.js":          "",
		"src/b.tsx":         "",
		"src/App.vue":       "",
		"src/c.d.ts":        "",
		"src/notes.txt":     "",
		".cache/x.js":       "",
		"node_modules/m.js": "",
		"coverage/lcov.js":  "",
		"scripts/build.mjs": "",
		"scripts/README.md": "",
	})

	explicit := filepath.Join(dir, "src/notes.txt")

	files, err := pipeline.Discover([]string{dir, explicit, filepath.Join(dir, "src/a.js")})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "scripts/build.mjs"),
		filepath.Join(dir, "src/App.vue"),
		filepath.Join(dir, "src/a.js"),
		filepath.Join(dir, "src/b.tsx"),
		explicit,
	}, files)
}

func TestDiscover_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := pipeline.Discover([]string{filepath.Join(t.TempDir(), "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMigratable(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"a.js":      true,
		"a.MJS":     true,
		"a.ts":      true,
		"a.tsx":     true,
		"Comp.vue":  true,
		"a.d.ts":    false,
		"a.d.mts":   false,
		"style.css": false,
		"Makefile":  false,
	}

	for path, want := range tests {
		assert.Equal(t, want, pipeline.Migratable(path), path)
	}
}

func TestReadManifest(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"package.json": `{
  "dependencies": { "vue-router": "^3.5.1" },
  "devDependencies": { "vue-router": "^4.0.0", "vuex": "3.6.2" },
  "peerDependencies": { "vue": "^2.6.0" }
}`,
		"broken/package.json": "{",
	})

	deps, err := pipeline.ReadManifest(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vue-router": "^3.5.1", "vuex": "3.6.2", "vue": "^2.6.0"}, deps)

	_, err = pipeline.ReadManifest(filepath.Join(dir, "broken/package.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse manifest")
}

func TestFindManifest(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"package.json":        "{}",
		"packages/a/src/x.js": "",
	})

	found, ok := pipeline.FindManifest(filepath.Join(dir, "packages/a/src"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "package.json"), found)
}

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"src/keep.txt": ""})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)

	go func() {
		done <- pipeline.Watch(ctx, dir, 20*time.Millisecond, func(_ context.Context, paths []string) {
			select {
			case batches <- paths:
			default:
			}
		})
	}()

	target := filepath.Join(dir, "src", "router.js")

	// The watcher registers asynchronously; keep writing until it reports.
	var got []string

	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte(routerSrc), 0o600)
		_ = os.WriteFile(filepath.Join(dir, "src", "notes.txt"), []byte("x"), 0o600)

		select {
		case got = <-batches:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{target}, got)

	cancel()
	require.NoError(t, <-done)
}
