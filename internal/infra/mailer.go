package infra

import (
	"fmt"
	"net/smtp"

	"github.com/walidyoshi/wals-honey-mgmt/internal/config"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending payment receipts.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	business string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		business: cfg.BusinessName,
	}
}

// SendPaymentReceipt emails the customer a confirmation of one payment and the
// remaining balance on the sale.
func (m *Mailer) SendPaymentReceipt(to string, sale *model.Sale, payment *model.Payment) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("%s — payment received", m.business)
	e.Text = []byte(fmt.Sprintf(
		"Dear %s,\n\nWe received your payment of %s (%s) on %s.\n"+
			"Sale total: %s\nPaid so far: %s\nBalance due: %s\n\n%s",
		sale.CustomerName,
		payment.Amount.StringFixed(2),
		payment.Method,
		payment.PaidAt.Format("02 Jan 2006"),
		sale.TotalAmount.StringFixed(2),
		sale.AmountPaid().StringFixed(2),
		sale.AmountDue().StringFixed(2),
		m.business,
	))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
