package projects

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/pagination"
)

const twoProjects = `
[[project]]
title = "homepage"
description = "This site"
source_url = "https://github.com/example/homepage"
deploy_url = "https://example.com"

[[project]]
title = "raytracer"
description = "Weekend raytracer"
source_url = "https://github.com/example/raytracer"
image_url = "/static/img/raytracer.png"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	writeFile(t, path, twoProjects)

	projects, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "homepage", projects[0].Title)
	assert.Equal(t, "https://example.com", projects[0].DeployURL)
	assert.Empty(t, projects[0].ImageURL)
	assert.Equal(t, "/static/img/raytracer.png", projects[1].ImageURL)
	assert.Empty(t, projects[1].DeployURL)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	writeFile(t, path, `
[[project]]
title = "ok"
description = "fine"
source_url = "https://example.com/ok"

[[project]]
title = "broken"
description = "no source"
`)

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project #2")
	assert.Contains(t, err.Error(), "source_url")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestLoad_UnknownKeysWarn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	writeFile(t, path, `
[[project]]
title = "typo"
description = "has a typo"
source_url = "https://example.com"
deploy_ulr = "https://oops.example.com"
`)

	core, logs := observer.New(zapcore.WarnLevel)
	projects, err := Load(path, zap.New(core).Sugar())
	require.NoError(t, err)
	require.Len(t, projects, 1)

	warnings := logs.FilterMessage("Projects file has unknown keys").All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].ContextMap()["keys"], "deploy_ulr")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"), nil)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[[project]\ntitle = ")
	_, err = Load(bad, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse projects file")
}

func TestCatalog_ReloadKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	writeFile(t, path, twoProjects)

	catalog := NewCatalog(path, nil)
	assert.Empty(t, catalog.All())
	require.NoError(t, catalog.Reload())
	require.Len(t, catalog.All(), 2)

	writeFile(t, path, "not = [valid")
	assert.Error(t, catalog.Reload())
	assert.Len(t, catalog.All(), 2, "a failed reload keeps the old list")
}

func TestCatalog_Page(t *testing.T) {
	catalog := NewStaticCatalog([]Project{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	})

	page := catalog.Page(pagination.Params{Limit: 2})
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, int64(2), *page.Next)

	page = catalog.Page(pagination.Params{Cursor: page.Next, Limit: 2})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c", page.Items[0].Title)
	assert.Nil(t, page.Next)

	assert.Error(t, catalog.Reload(), "static catalogs have no file")
}

func TestCatalog_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.toml")
	writeFile(t, path, twoProjects)

	catalog := NewCatalog(path, nil)
	catalog.debounce = 20 * time.Millisecond
	require.NoError(t, catalog.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, catalog.Watch(ctx))

	writeFile(t, path, twoProjects+`
[[project]]
title = "third"
description = "added while running"
source_url = "https://example.com/third"
`)

	assert.Eventually(t, func() bool { return len(catalog.All()) == 3 },
		2*time.Second, 10*time.Millisecond, "write triggers a reload")

	// Broken edits are ignored
	writeFile(t, path, "[[project]]\ntitle = \"half")
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, catalog.All(), 3)
}

func TestCatalog_WatchWithoutFile(t *testing.T) {
	assert.Error(t, NewStaticCatalog(nil).Watch(context.Background()))
}
