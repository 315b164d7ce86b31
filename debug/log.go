package debug

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	mu      sync.Mutex
	logger  = zap.NewNop().Sugar()
	enabled bool
)

// Dir is where the debug log is written
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-practice")
}

// Enable starts debug logging to ~/.config/go-practice/debug.log
func Enable() error {
	return EnableAt(filepath.Join(Dir(), "debug.log"))
}

// EnableAt starts debug logging to path, truncating it
func EnableAt(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	// zap appends; start each session with an empty file
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return err
	}

	rawJSON := []byte(`{
	  "level": "debug",
	  "encoding": "json",
	  "errorOutputPaths": ["stderr"],
	  "encoderConfig": {
	    "messageKey": "message",
	    "levelKey": "level",
	    "timeKey": "ts",
	    "nameKey": "category",
	    "levelEncoder": "lowercase",
	    "timeEncoder": "iso8601"
	  }
	}`)
	var cfg zap.Config
	if err := json.Unmarshal(rawJSON, &cfg); err != nil {
		return err
	}
	cfg.OutputPaths = []string{path}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l.Sugar()
	enabled = true
	logger.Named("debug").Info("=== Debug logging started ===")
	return nil
}

// Disable flushes and closes the debug log
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		_ = logger.Sync()
	}
	logger = zap.NewNop().Sugar()
	enabled = false
}

// Logger returns the logger for a category. It is a no-op logger until
// Enable is called.
func Logger(category string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger.Named(category)
}

// Every lets one in n calls through (use for high-frequency events)
type Every struct {
	n     uint64
	count atomic.Uint64
}

func NewEvery(n int) *Every {
	if n < 1 {
		n = 1
	}
	return &Every{n: uint64(n)}
}

// Allow reports whether this call should be logged. The first call always is.
func (e *Every) Allow() bool {
	return (e.count.Add(1)-1)%e.n == 0
}

// Count is the number of calls so far
func (e *Every) Count() uint64 {
	return e.count.Load()
}

// NewTestLogger returns a logger that records entries at debug and above
func NewTestLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), recorded
}
