package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"hrconsole/internal/domain/notifications"
	"hrconsole/internal/platform/config"
)

// discard is used when EMAIL_ENABLED is off; notifications stay in-app only.
type discard struct{}

func (discard) Send(context.Context, string, string, string, string) error { return nil }

// Sender delivers plain-text mail over SMTP, one connection per message.
type Sender struct {
	host     string
	addr     string
	user     string
	password string
	startTLS bool
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
	now      func() time.Time
}

// New returns an SMTP sender, or a sender that drops everything when email is
// disabled or no host is configured.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return discard{}
	}
	d := &net.Dialer{Timeout: 10 * time.Second}
	return &Sender{
		host:     cfg.SMTPHost,
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		startTLS: cfg.SMTPUseTLS,
		dial:     d.DialContext,
		now:      time.Now,
	}
}

func (s *Sender) Send(ctx context.Context, from, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}
	conn, err := s.dial(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", s.addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if s.startTLS {
		if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.user != "" {
		if err := c.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", to, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(compose(from, to, subject, body, s.now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	slog.Debug("email sent", "to", to, "subject", subject)
	return c.Quit()
}

// compose renders an RFC 5322 message. Header values are stripped of line
// breaks and non-ASCII subjects are Q-encoded.
func compose(from, to, subject, body string, at time.Time) []byte {
	clean := strings.NewReplacer("\r", "", "\n", " ")
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", clean.Replace(from))
	header("To", clean.Replace(to))
	header("Subject", mime.QEncoding.Encode("utf-8", clean.Replace(subject)))
	header("Date", at.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes()
}
