package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryLetsFirstOfEachRunThrough(t *testing.T) {
	e := NewEvery(3)
	var allowed []bool
	for i := 0; i < 7; i++ {
		allowed = append(allowed, e.Allow())
	}
	assert.Equal(t, []bool{true, false, false, true, false, false, true}, allowed)
	assert.Equal(t, uint64(7), e.Count())

	always := NewEvery(0)
	assert.True(t, always.Allow())
	assert.True(t, always.Allow())
}

func TestLoggerIsSilentUntilEnabled(t *testing.T) {
	// must not panic on the no-op logger
	Logger("test").Debugf("value %d", 1)
}

func TestEnableWritesCategorisedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	require.NoError(t, EnableAt(path))
	t.Cleanup(Disable)

	Logger("detector").Debugf("started %s", "single")
	Disable()
	// a disabled log writes nothing more
	Logger("detector").Debugf("stopped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"category":"detector"`)
	assert.Contains(t, out, "started single")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestNewTestLoggerRecords(t *testing.T) {
	log, logs := NewTestLogger()
	log.Named("session").Infow("loaded", "moments", 3)

	entries := logs.FilterMessage("loaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "session", entries[0].LoggerName)
	assert.Equal(t, int64(3), entries[0].ContextMap()["moments"])
}
