package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorObject is emitted only for error logs.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// ----- Logger -----

// Logger writes one JSON object per line:
//
//	timestamp, level, service, action, message, hostname,
//	request_id, ride_request_id, details, error{msg, stack}
type Logger struct {
	service  string
	hostname string
	backend  *logrus.Logger
}

// New creates a structured logger for the given service writing to stdout.
func New(service, level string) *Logger {
	return NewWithOutput(service, level, os.Stdout)
}

// NewWithOutput creates a structured logger writing to out.
// Unknown levels fall back to info.
func NewWithOutput(service, level string, out io.Writer) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}

	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	backend := logrus.New()
	backend.SetOutput(out)
	backend.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	backend.SetLevel(lvl)

	return &Logger{service: service, hostname: hn, backend: backend}
}

// fields builds the common field set for one entry.
func (l *Logger) fields(ctx context.Context, action string, details any) logrus.Fields {
	f := logrus.Fields{
		"service":  l.service,
		"hostname": l.hostname,
		"action":   safeAction(action),
	}
	if id := requestID(ctx); id != "" {
		f["request_id"] = id
	}
	if id := rideRequestID(ctx); id != "" {
		f["ride_request_id"] = id
	}
	if details != nil {
		f["details"] = details
	}
	return f
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.backend.WithFields(l.fields(ctx, action, details)).Debug(strings.TrimSpace(msg))
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.backend.WithFields(l.fields(ctx, action, details)).Info(strings.TrimSpace(msg))
}

// Warn writes a WARN line with optional details.
func (l *Logger) Warn(ctx context.Context, action, msg string, details any) {
	l.backend.WithFields(l.fields(ctx, action, details)).Warn(strings.TrimSpace(msg))
}

// Error writes an ERROR line and attaches an error stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}

	f := l.fields(ctx, action, details)
	f["error"] = ErrorObject{
		Msg:   strings.TrimSpace(err.Error()),
		Stack: string(debug.Stack()),
	}
	l.backend.WithFields(f).Error(strings.TrimSpace(msg))
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID     ctxKey = "matcher_request_id"
	ctxKeyRideRequestID ctxKey = "matcher_ride_request_id"
)

// WithRequestID returns a new context carrying request_id (one per delivery).
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	if strings.TrimSpace(reqID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, reqID)
}

// WithRideRequestID returns a new context carrying ride_request_id.
func (l *Logger) WithRideRequestID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRideRequestID, id)
}

// RequestIDFromContext returns the request_id carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	return requestID(ctx)
}

// requestID extracts request_id from ctx (if any).
func requestID(ctx context.Context) string {
	return stringValue(ctx, ctxKeyRequestID)
}

// rideRequestID extracts ride_request_id from ctx (if any).
func rideRequestID(ctx context.Context) string {
	return stringValue(ctx, ctxKeyRideRequestID)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ----- Small utilities -----

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}
