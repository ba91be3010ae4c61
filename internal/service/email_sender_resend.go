package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resendlabs/resend-go"
)

// ResendEmailSender delivers verification and recovery mail through Resend.
// An unconfigured sender is valid and fails every send, so the auth flows
// degrade to "email not sent" instead of panicking in development setups.
type ResendEmailSender struct {
	Client      *resend.Client
	VerifyFrom  string
	RecoverFrom string
	AppBaseURL  string
	VerifyPath  string
	ResetPath   string
}

func NewResendEmailSender(apiKey string, verifyFrom string, recoverFrom string, appBaseURL string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(verifyFrom) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		Client:      resend.NewClient(apiKey),
		VerifyFrom:  verifyFrom,
		RecoverFrom: recoverFrom,
		AppBaseURL:  strings.TrimRight(appBaseURL, "/"),
		VerifyPath:  "/verify-email",
		ResetPath:   "/reset-password",
	}
}

func (s *ResendEmailSender) SendVerificationEmail(ctx context.Context, email string, token string) error {
	if s.Client == nil {
		return errors.New("email sender not configured")
	}
	link := s.buildURL(s.VerifyPath, token)
	html := fmt.Sprintf(`Welcome to StreetRelay! We're so glad you've decided to join!<br>
To verify your email and opt-in to email notifications, click the link below:<br><br>
<a href="%s">Verify Email</a><br><br>
If you did not request this email, you can ignore it.<br>
This link will expire in 10 minutes.`, link)
	text := fmt.Sprintf(`Welcome to StreetRelay! We're so glad you've decided to join!
To verify your email and opt-in to email notifications, click the link below:

%s

If you did not request this email, you can ignore it.
This link will expire in 10 minutes.`, link)

	_, err := s.Client.Emails.Send(&resend.SendEmailRequest{
		From:    s.VerifyFrom,
		To:      []string{email},
		Subject: "Welcome to StreetRelay",
		Html:    html,
		Text:    text,
	})
	return err
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, email string, token string) error {
	if s.Client == nil {
		return errors.New("email sender not configured")
	}
	link := s.buildURL(s.ResetPath, token)
	html := fmt.Sprintf(`You have requested a password reset for your StreetRelay account.<br>
Click the link below to reset your password and recover your account:<br><br>
<a href="%s">Reset Password</a><br><br>
If you did not request this email, you can ignore it.<br>
This link will expire in 5 minutes.`, link)
	text := fmt.Sprintf(`You have requested a password reset for your StreetRelay account.
Click the link below to reset your password and recover your account:

%s

If you did not request this email, you can ignore it.
This link will expire in 5 minutes.`, link)

	_, err := s.Client.Emails.Send(&resend.SendEmailRequest{
		From:    s.RecoverFrom,
		To:      []string{email},
		Subject: "StreetRelay Password Reset",
		Html:    html,
		Text:    text,
	})
	return err
}

func (s *ResendEmailSender) buildURL(path string, token string) string {
	return fmt.Sprintf("%s%s?t=%s", s.AppBaseURL, path, url.QueryEscape(token))
}
