package envprep

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureServerServesFilesWithCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixture.json"), []byte(`{"ok":true}`), 0644))

	srv := NewFixtureServer(dir, nil)
	require.NoError(t, srv.Start(context.Background()))
	defer func() {
		require.NoError(t, srv.Stop(context.Background()))
	}()

	url := srv.URL()
	require.NotEmpty(t, url)

	req, err := http.NewRequest(http.MethodGet, url+"/fixture.json", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFixtureServerDoubleStartFails(t *testing.T) {
	srv := NewFixtureServer(t.TempDir(), nil)
	require.NoError(t, srv.Start(context.Background()))
	defer func() {
		require.NoError(t, srv.Stop(context.Background()))
	}()

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestFixtureServerStopWithoutStart(t *testing.T) {
	srv := NewFixtureServer(t.TempDir(), nil)
	assert.NoError(t, srv.Stop(context.Background()))
	assert.Empty(t, srv.URL())
}

func TestAddonsManagerRunsFixtureServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("hello"), 0644))

	mgr, err := NewAddonsManager(nil, WithFixtureServer(dir))
	require.NoError(t, err)

	require.NoError(t, mgr.Start(context.Background()))
	defer func() {
		require.NoError(t, mgr.Stop(context.Background()))
	}()

	url := mgr.FixtureURL()
	require.NotEmpty(t, url)

	resp, err := http.Get(url + "/data.txt")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestAddonsManagerWithoutAddons(t *testing.T) {
	mgr, err := NewAddonsManager(nil)
	require.NoError(t, err)

	assert.NoError(t, mgr.Start(context.Background()))
	assert.Empty(t, mgr.FixtureURL())
	assert.NoError(t, mgr.Stop(context.Background()))
}

func TestNilAddonsManagerIsSafe(t *testing.T) {
	var mgr *AddonsManager
	assert.NoError(t, mgr.Start(context.Background()))
	assert.NoError(t, mgr.Stop(context.Background()))
	assert.Empty(t, mgr.FixtureURL())
}
