package observability

import (
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	redacted       = "[REDACTED]"
	maxValueLength = 1000
	maxDepth       = 10
)

// Keys matched as substrings, case-insensitively.
var sensitiveKeyParts = []string{
	"password", "token", "authorization", "cookie", "session", "secret",
	"credential", "jwt", "signature", "api_key", "apikey", "private_key",
	"credit_card", "card_number", "cvv", "ssn",
}

// Keys matched exactly; as substrings they hit too many innocent names.
var sensitiveKeys = map[string]bool{
	"key": true, "auth": true, "pin": true, "otp": true, "x-api-key": true,
}

var (
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
	jwtPattern    = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)
)

// IsSensitiveKey reports whether a field with this key must never be logged.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// RedactString masks credentials embedded in free text and truncates
// oversized values.
func RedactString(s string) string {
	s = bearerPattern.ReplaceAllString(s, "Bearer "+redacted)
	s = jwtPattern.ReplaceAllString(s, redacted)
	if len(s) > maxValueLength {
		s = s[:maxValueLength] + "...[TRUNCATED]"
	}
	return s
}

type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core so that every field passes through redaction
// before encoding.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = RedactString(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = redactField(f)
	}
	return out
}

func redactField(f zapcore.Field) zapcore.Field {
	if IsSensitiveKey(f.Key) {
		return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: redacted}
	}
	switch f.Type {
	case zapcore.StringType:
		f.String = RedactString(f.String)
	case zapcore.ReflectType:
		f.Interface = redactValue(f.Interface, 0)
	}
	return f
}

func redactValue(v interface{}, depth int) interface{} {
	if depth > maxDepth {
		return "[Max Depth Exceeded]"
	}
	switch val := v.(type) {
	case string:
		return RedactString(val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = redacted
				continue
			}
			out[k] = RedactString(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(item, depth+1)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = redactValue(item, depth+1)
		}
		return out
	default:
		return v
	}
}
