// Package notify emails settlement statements to drivers and fleet owners.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"

	"gopkg.in/gomail.v2"
)

var ErrInvalidRecipient = errors.New("invalid_recipient")

// Sender delivers messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender   Sender
	fromName string
	fromAddr string
}

func NewMailer(host string, port int, user, pass, fromName, fromAddr string) *Mailer {
	return &Mailer{
		sender:   gomail.NewDialer(host, port, user, pass),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// NewMailerWithSender is used when the transport is provided by the caller.
func NewMailerWithSender(s Sender, fromName, fromAddr string) *Mailer {
	return &Mailer{sender: s, fromName: fromName, fromAddr: fromAddr}
}

// SendStatement mails the PDF as an attachment.
func (m *Mailer) SendStatement(ctx context.Context, to, subject, body, filename string, pdf []byte) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromAddr, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send statement to %s: %w", to, err)
	}
	return nil
}
