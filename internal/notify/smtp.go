package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/backstop-systems/backstop/internal/secret"
	"github.com/backstop-systems/backstop/pkg/types"
)

// SMTPSink delivers notifications by mail. Credentials are optional; when a
// username is configured its secret is resolved once at construction and only
// unwrapped inside Send.
type SMTPSink struct {
	host     string
	port     int
	from     string
	to       []string
	username string
	password secret.Value

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSink creates a new SMTP notification sink.
func NewSMTPSink(ctx context.Context, cfg types.NotifyConfig, resolver *secret.Resolver) (*SMTPSink, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("smtp recipient list required")
	}

	s := &SMTPSink{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		to:       cfg.To,
		username: cfg.Username,
		sendMail: smtp.SendMail,
	}
	if s.port == 0 {
		s.port = 25
	}

	if cfg.Username != "" {
		if resolver == nil {
			resolver = secret.NewResolver()
		}
		pw, err := resolver.Resolve(ctx, cfg.Secret)
		if err != nil {
			return nil, fmt.Errorf("resolving smtp secret: %w", err)
		}
		s.password = pw
	}

	return s, nil
}

// Name returns the sink identifier.
func (s *SMTPSink) Name() string { return "smtp" }

// Send delivers the notification to all recipients in one message.
func (s *SMTPSink) Send(_ context.Context, n types.Notification) error {
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password.Reveal(), s.host)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	if err := s.sendMail(addr, auth, s.from, s.to, s.message(n)); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}

// message renders the RFC 5322 payload.
func (s *SMTPSink) message(n types.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(n))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(Body(n), "\n", "\r\n"))
	return []byte(b.String())
}
