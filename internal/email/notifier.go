// Package email manda avisos best-effort por SMTP. Sin SMTP configurado el
// notifier es un no-op; un fallo de envío se loguea y nunca rompe el request.
package email

import (
	"crypto/tls"
	"fmt"

	gomail "github.com/go-mail/mail"

	"github.com/brightforge/portal/internal/observability/logger"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	NotifyTo string
}

type Notifier struct {
	cfg    Config
	dialer *gomail.Dialer
}

// New devuelve nil si no hay host configurado; los métodos son nil-safe.
func New(cfg Config) *Notifier {
	if cfg.Host == "" {
		return nil
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Notifier{cfg: cfg, dialer: d}
}

func (n *Notifier) send(to, subject, body string) {
	if n == nil || to == "" {
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := n.dialer.DialAndSend(m); err != nil {
		logger.S().Warnw("email_send_failed", "to", to, "subject", subject, "err", err)
	}
}

// NotifyInquiry avisa al buzón configurado que entró una consulta nueva.
func (n *Notifier) NotifyInquiry(name, fromEmail, company, message string) {
	if n == nil {
		return
	}
	body := fmt.Sprintf("Nueva consulta de %s <%s>", name, fromEmail)
	if company != "" {
		body += " (" + company + ")"
	}
	body += "\n\n" + message
	go n.send(n.cfg.NotifyTo, "Nueva consulta en el portal", body)
}

// NotifyMessage avisa al destinatario que tiene un mensaje nuevo.
func (n *Notifier) NotifyMessage(recipientEmail, subject string) {
	if n == nil {
		return
	}
	go n.send(recipientEmail, "Nuevo mensaje en el portal",
		fmt.Sprintf("Tenés un mensaje nuevo: %q. Entrá al portal para leerlo.", subject))
}
