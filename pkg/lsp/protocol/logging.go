package protocol

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/walteh/ngtmpls/pkg/debug"
)

var sessionID = xid.New().String()

// RPCLogger records every request and response at trace level.
type RPCLogger struct{}

var _ jrpc2.RPCLogger = RPCLogger{}

func (RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Trace().
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		Msg("rpc request")
}

func (RPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	ev := zerolog.Ctx(ctx).Trace().Str("rpc_id", resp.ID())
	if err := resp.Error(); err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("rpc response")
}

// MultiRPCLogger fans each record out to several loggers.
type MultiRPCLogger struct {
	mu      sync.Mutex
	loggers []jrpc2.RPCLogger
}

func NewMultiRPCLogger(loggers ...jrpc2.RPCLogger) *MultiRPCLogger {
	return &MultiRPCLogger{loggers: loggers}
}

func (m *MultiRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogRequest(ctx, req)
	}
}

func (m *MultiRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogResponse(ctx, resp)
	}
}

func (m *MultiRPCLogger) AddLogger(logger jrpc2.RPCLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggers = append(m.loggers, logger)
}

// ApplyClientToZerolog returns a context whose logger writes to local and
// also to the editor as window/logMessage. The editor only sees records at
// minLevel or above. A nil local forwards only.
func ApplyClientToZerolog(ctx context.Context, client Client, local io.Writer, minLevel zerolog.Level) context.Context {
	level := zerolog.Ctx(ctx).GetLevel()
	if level == zerolog.Disabled {
		level = minLevel
	}

	var out io.Writer = &levelFilter{
		min: minLevel,
		w:   &logWriter{client: client, ctx: context.WithoutCancel(ctx)},
	}
	if local != nil {
		out = zerolog.MultiLevelWriter(local, out)
	}

	logger := zerolog.New(out).With().
		Str("session", sessionID).
		Logger().
		Level(level).
		Hook(debug.TimeHook{}).
		Hook(debug.CallerHook{})

	return logger.WithContext(ctx)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	ctx = zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
	return ctx
}

type levelFilter struct {
	min zerolog.Level
	w   *logWriter
}

func (f *levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

type logWriter struct {
	client Client
	mu     sync.Mutex
	ctx    context.Context
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	msg := extractField(entry, "message", "")
	level := ParseMessageTypeFromZerolog(extractField(entry, "level", "info"))
	if caller := extractField(entry, "caller", ""); caller != "" {
		msg = caller + " " + msg
	}

	// forwarding failures are not worth failing the log call over
	_ = w.client.LogMessage(w.ctx, &LogMessageParams{Type: level, Message: msg})

	return len(p), nil
}

func extractField(entry map[string]any, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

// ParseMessageTypeFromZerolog converts zerolog level to LSP MessageType
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}
