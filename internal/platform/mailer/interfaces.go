package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendPasswordReset(email, name, resetURL string) error
	SendInquiryNotice(inbox, guestName, subject, inquiryID string) error
}
