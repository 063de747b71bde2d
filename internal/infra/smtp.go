package infra

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"vestibox/internal/config"
)

// Mensaje is one outgoing email, optionally with a PDF attached.
type Mensaje struct {
	Para    string
	Asunto  string
	Cuerpo  string
	Adjunto string // path on disk; empty means no attachment
}

// Mailer sends Mensajes over SMTP.
type Mailer struct {
	host     string
	from     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		from:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool { return m.host != "" }

// Enviar delivers msg. PlainAuth is only used when a password is set so a
// local relay (mailhog, postfix) works without credentials.
func (m *Mailer) Enviar(msg Mensaje) error {
	if !m.Configurado() {
		return fmt.Errorf("mailer: SMTP_HOST no configurado")
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.Para}
	e.Subject = msg.Asunto
	e.Text = []byte(msg.Cuerpo)

	if msg.Adjunto != "" {
		if _, err := e.AttachFile(msg.Adjunto); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.from, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
