package logger

import "log/slog"

// Group creates a group attribute.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error returns an "error" attribute, or an empty Attr for a nil error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Subject records the authenticated subject under "sub".
func Subject(sub string) slog.Attr {
	return nonEmpty("sub", sub)
}

// SignInID records the sign-in correlation id.
func SignInID(id string) slog.Attr {
	return nonEmpty("signin_id", id)
}

// ClientID records the relying party client id.
func ClientID(id string) slog.Attr {
	return nonEmpty("client_id", id)
}

// Provider records an external identity provider name under "idp".
func Provider(name string) slog.Attr {
	return nonEmpty("idp", name)
}

// Outcome records the authentication outcome (none, error, partial, full).
func Outcome(kind string) slog.Attr {
	return slog.String("outcome", kind)
}

func RequestID(id string) slog.Attr {
	return nonEmpty("request_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Empty attributes are dropped by slog handlers.
func nonEmpty(key, v string) slog.Attr {
	if v == "" {
		return slog.Attr{}
	}
	return slog.String(key, v)
}
