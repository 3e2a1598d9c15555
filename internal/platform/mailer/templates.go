package mailer

import "fmt"

func resetEmail(name, resetURL string) (subject, text, html string) {
	subject = "Reset your Staffdesk password"
	text = fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password. Click the link below to choose a new one:\n%s\n\nThe link expires in one hour. If you didn't ask for this, you can ignore this email.", name, resetURL)
	html = fmt.Sprintf(`
		<h2>Reset your password</h2>
		<p>Hi %s,</p>
		<p>We received a request to reset your password. Click the button below to choose a new one:</p>
		<p><a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
		<p>The link expires in one hour. If you didn't ask for this, you can ignore this email.</p>
	`, name, resetURL)
	return subject, text, html
}

func inquiryNotice(guestName, inquirySubject, inquiryID string) (subject, text, html string) {
	subject = fmt.Sprintf("New guest inquiry: %s", inquirySubject)
	text = fmt.Sprintf("Guest %s submitted a new inquiry (%s): %s", guestName, inquiryID, inquirySubject)
	html = fmt.Sprintf(`
		<h2>New guest inquiry</h2>
		<p><strong>%s</strong> submitted a new inquiry:</p>
		<p>%s</p>
		<p>Reference: %s</p>
	`, guestName, inquirySubject, inquiryID)
	return subject, text, html
}
