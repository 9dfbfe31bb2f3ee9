// Package reporting delivers unexpected server errors to the site owners.
package reporting

import (
	"context"
	"errors"
	"net/http"
)

type Reporter interface {
	// Report error happened while serving request
	// Request may be nil if error happened outside of request
	Report(ctx context.Context, err error, r *http.Request)
}

// Reporter that does nothing
type Nop struct{}

func (Nop) Report(context.Context, error, *http.Request) {}

// Fan out reports to every reporter
type Multi []Reporter

func (m Multi) Report(ctx context.Context, err error, r *http.Request) {
	for _, reporter := range m {
		reporter.Report(ctx, err, r)
	}
}

type errorLogger interface {
	Error(msg string, args ...any)
}

type Config struct {
	Mail      MailConfig
	SentryDSN string
}

// Build reporter of every configured kind
// Nop returned if nothing configured
func New(cfg Config, l errorLogger) (Reporter, func(), error) {
	var reporters Multi
	cleanup := func() {}

	if cfg.Mail.Server != "" && len(cfg.Mail.Admins) > 0 {
		reporters = append(reporters, NewMailReporter(cfg.Mail, l))
	}

	if cfg.SentryDSN != "" {
		sr, err := NewSentryReporter(cfg.SentryDSN)
		if err != nil {
			return nil, cleanup, err
		}
		reporters = append(reporters, sr)
		cleanup = sr.Flush
	}

	switch len(reporters) {
	case 0:
		return Nop{}, cleanup, nil
	case 1:
		return reporters[0], cleanup, nil
	default:
		return reporters, cleanup, nil
	}
}

var errEmptyDSN = errors.New("sentry dsn must not be empty")
