package mail

import "fmt"

func SendEmailVerification(sender MailSender, toEmail string, verifyURL string) error {
	body := fmt.Sprintf(
		"Welcome! Please verify your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours.",
		verifyURL,
	)
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: "Please verify your email address",
		Body:    body,
	})
}

func SendPasswordResetLink(sender MailSender, toEmail string, resetURL string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account. Open the link below to choose a new password:\n\n%s\n\nThe link expires in 1 hour. If you did not request this, you can ignore this message.",
		resetURL,
	)
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: "Reset your password",
		Body:    body,
	})
}

func SendTwoFactorSetup(sender MailSender, toEmail string, provisioningURI string, backupCodes []string) error {
	body := fmt.Sprintf(
		"Two-factor authentication setup was started for your account.\n\nAdd this account to your authenticator app:\n%s\n\nStore these single-use backup codes somewhere safe:\n",
		provisioningURI,
	)
	for _, code := range backupCodes {
		body += "  " + code + "\n"
	}
	return sender.Send(&Message{
		To:      []string{toEmail},
		Subject: "Two-factor authentication setup",
		Body:    body,
	})
}
