package reporting

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const (
	mailSubject = "Microblog Failure"

	// Whole SMTP conversation must fit into it
	defaultMailTimeout = 10 * time.Second
)

type MailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Admins   []string

	// Default is used if not set
	Timeout time.Duration
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mail error reports to admins
type MailReporter struct {
	addr   string
	auth   smtp.Auth
	from   string
	admins []string
	send   sendFunc
	logger errorLogger
}

func NewMailReporter(cfg MailConfig, l errorLogger) *MailReporter {
	port := cfg.Port
	if port == 0 {
		port = 25
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Server)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}

	return &MailReporter{
		addr:   net.JoinHostPort(cfg.Server, strconv.Itoa(port)),
		auth:   auth,
		from:   "no-reply@" + cfg.Server,
		admins: cfg.Admins,
		send:   sendMailWithTimeout(timeout),
		logger: l,
	}
}

func (m *MailReporter) Report(_ context.Context, err error, r *http.Request) {
	msg := m.message(err, r, time.Now().UTC())

	if sendErr := m.send(m.addr, m.auth, m.from, m.admins, msg); sendErr != nil {
		m.logger.Error("failed to mail error report", "error", sendErr, "reported", err)
	}
}

func (m *MailReporter) message(err error, r *http.Request, at time.Time) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.admins, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mailSubject)
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Time: %s\r\n", at.Format(time.RFC3339))
	if r != nil {
		fmt.Fprintf(&b, "Request: %s %s\r\n", r.Method, r.RequestURI)
		fmt.Fprintf(&b, "Remote address: %s\r\n", r.RemoteAddr)
	}
	fmt.Fprintf(&b, "Error: %v\r\n", err)

	return []byte(b.String())
}

// Same as smtp.SendMail, but dial and the whole conversation are limited with timeout
func sendMailWithTimeout(timeout time.Duration) sendFunc {
	return func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return fmt.Errorf("can't connect to mail server. Err: %w", err)
		}
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return err
		}

		host, _, _ := net.SplitHostPort(addr)
		c, err := smtp.NewClient(conn, host)
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("mail server greeting failed. Err: %w", err)
		}
		defer c.Close() // nolint:errcheck

		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return err
			}
		}
		if a != nil {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, rcpt := range to {
			if err := c.Rcpt(rcpt); err != nil {
				return err
			}
		}

		wc, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := wc.Write(msg); err != nil {
			return err
		}
		if err := wc.Close(); err != nil {
			return err
		}

		return c.Quit()
	}
}
