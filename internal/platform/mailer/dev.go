package mailer

import "github.com/oakline/staffdesk/pkg/logger"

// DevMailer logs emails instead of sending them. It is selected when SMTP is
// not fully configured, so the flows stay testable without a relay.
type DevMailer struct{}

func NewDevMailer() *DevMailer { return &DevMailer{} }

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("dev mailer: email not sent",
		"to", toEmail,
		"subject", subject,
		"body", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendPasswordReset(email, name, resetURL string) error {
	logger.Info("dev mailer: password reset",
		"to", email,
		"reset_url", resetURL,
	)
	return nil
}

func (d *DevMailer) SendInquiryNotice(inbox, guestName, inquirySubject, inquiryID string) error {
	logger.Info("dev mailer: inquiry notice",
		"to", inbox,
		"guest", guestName,
		"subject", inquirySubject,
		"inquiry_id", inquiryID,
	)
	return nil
}
