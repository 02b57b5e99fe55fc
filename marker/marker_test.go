package marker

import (
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/spec-harness/types"
)

func TestValue(t *testing.T) {
	assert.Equal(t, AllPassing, Value(types.RunPassed))
	assert.Equal(t, HasFailures, Value(types.RunFailed))
}

func TestFileMarker_Apply(t *testing.T) {
	dir := t.TempDir()
	m := NewFileMarker(dir, log.New())

	require.NoError(t, m.Apply(types.RunPassed))
	assert.Equal(t, AllPassing, m.Applied())

	value, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, AllPassing, value)
}

func TestFileMarker_ReapplySameValueIsNoOp(t *testing.T) {
	dir := t.TempDir()
	m := NewFileMarker(dir, log.New())

	require.NoError(t, m.Apply(types.RunFailed))
	require.NoError(t, m.Apply(types.RunFailed))

	value, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, HasFailures, value)
}

func TestFileMarker_ConflictingValueIsRejected(t *testing.T) {
	dir := t.TempDir()
	m := NewFileMarker(dir, log.New())

	require.NoError(t, m.Apply(types.RunPassed))

	err := m.Apply(types.RunFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already applied")

	// The recorded value is untouched
	value, readErr := Read(dir)
	require.NoError(t, readErr)
	assert.Equal(t, AllPassing, value)
}

func TestRead_MissingMarker(t *testing.T) {
	_, err := Read(t.TempDir())
	require.Error(t, err)
}

func TestRead_UnrecognizedValue(t *testing.T) {
	dir := t.TempDir()
	m := NewFileMarker(dir, log.New())
	require.NoError(t, os.WriteFile(m.Path(), []byte("sort-of-passing\n"), 0644))

	_, err := Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized")
}
