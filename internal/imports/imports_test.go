package imports

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestFanInTypeScript(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/lib/util.ts":     "export const x = 1\n",
		"src/lib/index.ts":    "export * from './util'\n",
		"src/a.ts":            "import { x } from './lib/util'\nimport lib from './lib'\n",
		"src/b.tsx":           "import {\n  x,\n} from \"./lib/util.js\"\n",
		"src/c.js":            "const u = require('./lib/util')\nconst l = require('react')\n",
		"src/d.ts":            "import './lib/util'\nconst m = await import('./a')\n",
		"src/e.ts":            "import { x } from './lib/util'\nimport { y } from './lib/util'\n",
		"node_modules/p/i.js": "require('../../src/lib/util')\n",
	})

	fanIn, err := New(nil).FanIn(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 6, fanIn["src/lib/util.ts"], "index, a, b, c, d, e")
	assert.Equal(t, 1, fanIn["src/lib/index.ts"])
	assert.Equal(t, 1, fanIn["src/a.ts"])
	assert.NotContains(t, fanIn, "src/e.ts")
}

func TestFanInGo(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":                   "module example.com/app\n\ngo 1.22\n",
		"internal/store/a.go":      "package store\n",
		"internal/store/b.go":      "package store\n",
		"internal/store/a_test.go": "package store\nimport _ \"example.com/app/internal/store\"\n",
		"cmd/app/main.go":          "package main\nimport (\n\t\"fmt\"\n\t\"example.com/app/internal/store\"\n)\n",
		"internal/api/api.go":      "package api\nimport \"example.com/app/internal/store\"\n",
		"broken.go":                "package main\nimport (\n",
	})

	fanIn, err := New(nil).FanIn(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, fanIn["internal/store/a.go"])
	assert.Equal(t, 3, fanIn["internal/store/b.go"])
	assert.NotContains(t, fanIn, "internal/store/a_test.go")
}

func TestFanInPython(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/__init__.py":  "",
		"app/models.py":    "",
		"app/views.py":     "from .models import User\nfrom . import helpers\n",
		"app/helpers.py":   "import os, app.models\n",
		"scripts/seed.py":  "from app.models import User\nimport app\n",
		"__pycache__/x.py": "import app.models\n",
	})

	fanIn, err := New(nil).FanIn(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, fanIn["app/models.py"])
	assert.Equal(t, 2, fanIn["app/__init__.py"])
}

func TestFanInCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.ts": "import './b'\n", "b.ts": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).FanIn(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFanInMissingRoot(t *testing.T) {
	_, err := New(nil).FanIn(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
