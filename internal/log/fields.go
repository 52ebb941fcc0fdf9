package log

import (
	"net/http"
	"time"
)

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations name what a handler was doing when it logged.
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpSignup  = "signup"
	OpSignin  = "signin"
	OpSummary = "summary"
)

// Fields collects slog key/value pairs in insertion order.
type Fields []any

func NewFields() Fields {
	return make(Fields, 0, 16)
}

func (f Fields) add(key string, value any) Fields {
	return append(f, key, value)
}

func (f Fields) WithRequestID(id string) Fields {
	if id == "" {
		return f
	}
	return f.add(FieldRequestID, id)
}

func (f Fields) WithClientIP(ip string) Fields {
	if ip == "" {
		return f
	}
	return f.add(FieldClientIP, ip)
}

func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

func (f Fields) WithOperation(op string) Fields {
	return f.add(FieldOperation, op)
}

func (f Fields) WithUser(userID int64) Fields {
	return f.add(FieldUserID, userID)
}

// WithRequest records method and path, plus query and user agent when set.
func (f Fields) WithRequest(r *http.Request) Fields {
	f = f.add(FieldMethod, r.Method).add(FieldPath, r.URL.Path)
	if q := r.URL.RawQuery; q != "" {
		f = f.add(FieldQuery, q)
	}
	if ua := r.UserAgent(); ua != "" {
		f = f.add(FieldUserAgent, ua)
	}
	return f
}

func (f Fields) WithResponse(status int, took time.Duration) Fields {
	return f.add(FieldStatusCode, status).add(FieldDuration, took.Milliseconds())
}

// Args returns the pairs for slog's variadic logging methods.
func (f Fields) Args() []any {
	return f
}
