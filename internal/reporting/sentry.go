package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// Send error reports to sentry
type SentryReporter struct {
	hub *sentry.Hub
}

func NewSentryReporter(dsn string) (*SentryReporter, error) {
	if dsn == "" {
		return nil, errEmptyDSN
	}

	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: dsn})
	if err != nil {
		return nil, fmt.Errorf("can't create sentry client. Err: %w", err)
	}

	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (s *SentryReporter) Report(_ context.Context, err error, r *http.Request) {
	hub := s.hub.Clone()
	if r != nil {
		hub.Scope().SetRequest(r)
	}
	hub.CaptureException(err)
}

func (s *SentryReporter) Flush() {
	s.hub.Flush(sentryFlushTimeout)
}
