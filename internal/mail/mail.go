// Package mail is the outbound notification sink. Its single job is
// dispatching confirmation codes to users at signup. Failures surface to
// the caller: a signup whose code cannot be delivered is a failed request,
// not a silent success.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// dialTimeout bounds the SMTP connection attempt so a dead relay cannot
// hang a signup request.
const dialTimeout = 10 * time.Second

// Sender dispatches a message to one or more recipients.
type Sender interface {
	Send(ctx context.Context, subject, body string, to ...string) error
}

// SMTP sends mail through a configured relay using PLAIN auth.
type SMTP struct {
	host string
	port string
	user string
	pass string
	from string

	// tlsConfig overrides the STARTTLS client configuration. Tests use it
	// to trust a local relay's self-signed certificate; when nil the relay
	// certificate is verified against the configured host name.
	tlsConfig *tls.Config
}

// NewSMTP creates an SMTP sender. The caller is expected to have checked
// that the host is configured; see NewFromEnv-style wiring in main.
func NewSMTP(host, port, user, pass, from string) *SMTP {
	return &SMTP{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers the message synchronously. The connection attempt is
// bounded by dialTimeout and by the context deadline, whichever is sooner.
func (s *SMTP) Send(ctx context.Context, subject, body string, to ...string) error {
	addr := net.JoinHostPort(s.host, s.port)

	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		cfg := s.tlsConfig
		if cfg == nil {
			cfg = &tls.Config{ServerName: s.host}
		}
		if err := client.StartTLS(cfg); err != nil {
			return fmt.Errorf("mail starttls: %w", err)
		}
	}

	if s.user != "" {
		auth := smtp.PlainAuth("", s.user, s.pass, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail auth: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail data: %w", err)
	}

	msg := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		strings.Join(to, ", "), s.from, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("mail write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail close: %w", err)
	}

	return client.Quit()
}

// LogSender is the development sink: it logs instead of sending, so the
// confirmation code shows up in the server output. Never use outside
// development.
type LogSender struct{}

// Send logs the message and always succeeds.
func (LogSender) Send(_ context.Context, subject, body string, to ...string) error {
	slog.Info("mail (dev sink, not sent)",
		"to", strings.Join(to, ", "),
		"subject", subject,
		"body", body,
	)
	return nil
}
