package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFilePath is where the rotating log lands, relative to the working
// directory (project root when run via go run ./cmd/studio).
const DefaultFilePath = "logs/studio.log"

// defaultKeep bounds the in-memory tail served to the console overlay.
const defaultKeep = 200

// Options configure the sinks. Zero values pick sensible defaults.
type Options struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zapcore.Level
	Keep       int
}

// Log is a zap logger that writes structured JSON to a rotating file and keeps
// a short plain-text tail in memory for the in-app console.
type Log struct {
	*zap.Logger
	buf *ringBuffer
}

// New builds the logger and ensures the log directory exists. Failures to
// prepare the directory are ignored; lumberjack retries on first write.
func New(opts Options) *Log {
	if opts.FilePath == "" {
		opts.FilePath = DefaultFilePath
	}
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 5
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 3
	}
	if opts.Keep == 0 {
		opts.Keep = defaultKeep
	}
	_ = os.MkdirAll(filepath.Dir(opts.FilePath), 0755)

	fileEnc := zap.NewProductionEncoderConfig()
	fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEnc),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}),
		opts.Level,
	)

	buf := &ringBuffer{keep: opts.Keep}
	tee := zapcore.NewTee(fileCore, newRingCore(buf, opts.Level))
	return &Log{Logger: zap.New(tee), buf: buf}
}

// Lines returns a copy of the retained tail, oldest first.
func (l *Log) Lines() []string {
	return l.buf.lines()
}

// ringBuffer holds the most recent formatted lines. Shared by all clones of
// the ring core so child loggers land in the same tail.
type ringBuffer struct {
	mu   sync.Mutex
	keep int
	rows []string
}

func (b *ringBuffer) push(line string) {
	b.mu.Lock()
	b.rows = append(b.rows, line)
	if len(b.rows) > b.keep {
		b.rows = b.rows[len(b.rows)-b.keep:]
	}
	b.mu.Unlock()
}

func (b *ringBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.rows))
	copy(out, b.rows)
	return out
}

// ringCore is a zapcore.Core that renders entries with the console encoder and
// appends them to the shared ring buffer.
type ringCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	buf *ringBuffer
}

func newRingCore(buf *ringBuffer, enab zapcore.LevelEnabler) *ringCore {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return &ringCore{
		LevelEnabler: enab,
		enc:          zapcore.NewConsoleEncoder(cfg),
		buf:          buf,
	}
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &ringCore{LevelEnabler: c.LevelEnabler, enc: enc, buf: c.buf}
}

func (c *ringCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *ringCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	line, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	c.buf.push(strings.TrimRight(line.String(), "\n"))
	line.Free()
	return nil
}

func (c *ringCore) Sync() error { return nil }
