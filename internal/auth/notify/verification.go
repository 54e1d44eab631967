package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

// VerificationSubject is the subject line of the confirmation code email.
const VerificationSubject = "CVision - Validation Code"

//go:embed templates/*.html
var templateFS embed.FS

var verificationHTML = template.Must(template.ParseFS(templateFS, "templates/verification.html"))

type verificationData struct {
	Code string
	Year int
}

// VerificationMessage builds the email carrying a registration confirmation
// code to the address being registered.
func VerificationMessage(to, code string, now time.Time) (Message, error) {
	var html bytes.Buffer
	if err := verificationHTML.Execute(&html, verificationData{Code: code, Year: now.Year()}); err != nil {
		return Message{}, fmt.Errorf("notify: render verification email: %w", err)
	}

	return Message{
		To:      to,
		Subject: VerificationSubject,
		Text:    "Your validation code is " + code,
		HTML:    html.String(),
	}, nil
}
