// internal/infra/email/smtp_notifier.go
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"iss_overhead_notifier/internal/domain/notification"
	"iss_overhead_notifier/internal/domain/tracking"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

// Settings describes the SMTP account used to send notifications.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// SMTPNotifier sends the overhead alert as a plain-text email using STARTTLS
// (when offered) and PLAIN authentication. It implements notification.Notifier.
type SMTPNotifier struct {
	settings Settings
	now      func() time.Time
	render   func(notification.Payload) (string, error)
}

func NewSMTPNotifier(s Settings) *SMTPNotifier {
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{settings: s, now: time.Now, render: notification.Payload.Body}
}

// Verify logs in and disconnects without sending anything.
func (n *SMTPNotifier) Verify(ctx context.Context) error {
	c, err := n.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Quit(); err != nil {
		return transportErr("quit", err)
	}
	return nil
}

// Send delivers the payload to the configured recipient.
func (n *SMTPNotifier) Send(ctx context.Context, payload notification.Payload) error {
	msg, err := n.buildMessage(payload)
	if err != nil {
		return fmt.Errorf("smtp build message: %w", err)
	}

	c, err := n.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(n.settings.From); err != nil {
		return transportErr("mail from", err)
	}
	if err := c.Rcpt(n.settings.To); err != nil {
		return transportErr("rcpt to", err)
	}
	w, err := c.Data()
	if err != nil {
		return transportErr("data", err)
	}
	if _, err := w.Write(msg); err != nil {
		return transportErr("write body", err)
	}
	if err := w.Close(); err != nil {
		return transportErr("finish body", err)
	}
	// The server accepted the message once DATA is closed; a failed QUIT
	// does not undo delivery.
	_ = c.Quit()
	return nil
}

// connect dials, upgrades to TLS when the server offers it, and authenticates.
func (n *SMTPNotifier) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(n.settings.Host, strconv.Itoa(n.settings.Port))
	dialer := &net.Dialer{Timeout: n.settings.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transportErr("dial "+addr, err)
	}

	deadline := time.Now().Add(n.settings.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, n.settings.Host)
	if err != nil {
		conn.Close()
		return nil, transportErr("handshake", err)
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.settings.Host}); err != nil {
			c.Close()
			return nil, transportErr("starttls", err)
		}
	}

	auth := smtp.PlainAuth("", n.settings.Username, n.settings.Password, n.settings.Host)
	if err := c.Auth(auth); err != nil {
		c.Close()
		if isAuthRejection(err) {
			return nil, fmt.Errorf("%w: smtp login as %s: %v", tracking.ErrAuthFailure, n.settings.Username, err)
		}
		return nil, transportErr("auth", err)
	}
	return c, nil
}

func (n *SMTPNotifier) buildMessage(payload notification.Payload) ([]byte, error) {
	body, err := n.render(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", n.settings.From)
	fmt.Fprintf(&buf, "To: %s\r\n", n.settings.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", notification.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}

// isAuthRejection matches the SMTP replies servers use for bad credentials.
func isAuthRejection(err error) bool {
	var protoErr *textproto.Error
	if !errors.As(err, &protoErr) {
		return false
	}
	switch protoErr.Code {
	case 530, 534, 535:
		return true
	}
	return false
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: smtp %s: %v", tracking.ErrTransportFailure, op, err)
}
