package audit

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	}
}

func TestRecordVideo_WritesHeaderOnce(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "mycontent.csv")
	l := NewLogger(path)
	l.now = fixedClock()
	assert.Equal(t, path, l.Path())

	require.NoError(t, l.RecordVideo(`a "quoted", prompt`, "vid-1"))
	require.NoError(t, l.RecordVideo("second", "vid-2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"DateTime,Prompt,URLPath\n"+
			"2026-03-04T04:06:07Z,\"a \"\"quoted\"\", prompt\",/v1/videos/generations/vid-1\n"+
			"2026-03-04T04:06:07Z,second,/v1/videos/generations/vid-2\n",
		string(data))
}

func TestRecordVideo_AppendsToExistingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mycontent.csv")
	require.NoError(t, os.WriteFile(path, []byte("DateTime,Prompt,URLPath\n2020-01-01T00:00:00Z,old,/v1/videos/generations/x\n"), 0o644))

	l := NewLogger(path)
	l.now = fixedClock()
	require.NoError(t, l.RecordVideo("new", "y"))

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "old", entries[0].Prompt)
	assert.Equal(t, "new", entries[1].Prompt)
	assert.Equal(t, "/v1/videos/generations/y", entries[1].URLPath)
	assert.True(t, entries[1].DateTime.Equal(time.Date(2026, 3, 4, 4, 6, 7, 0, time.UTC)))
}

func TestRecordVideo_Concurrent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "mycontent.csv")
	l := NewLogger(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.RecordVideo("prompt\nwith newline", "id"))
		}()
	}
	wg.Wait()

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
	assert.Equal(t, "prompt\nwith newline", entries[0].Prompt)
}

func TestDisabledLogger(t *testing.T) {
	t.Parallel()
	var nilLogger *Logger
	assert.False(t, nilLogger.Enabled())
	assert.Empty(t, nilLogger.Path())
	assert.NoError(t, nilLogger.RecordVideo("p", "id"))
	assert.NoError(t, NewLogger("").RecordVideo("p", "id"))
}

func TestReadEntries_Missing(t *testing.T) {
	t.Parallel()
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "none.csv"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
