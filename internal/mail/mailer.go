package mail

import "log/slog"

// Mailer delivers magic-link emails. The SMTP/provider integration lives
// behind this interface; outside production the link is only logged.
type Mailer interface {
	SendLoginLink(email, url string) error
}

// LogMailer writes the login link to the log instead of sending it. Used in
// development so the link can be followed from the console.
type LogMailer struct{}

func (LogMailer) SendLoginLink(email, url string) error {
	slog.Info("magic link issued", "email", email, "url", url)
	return nil
}
