package services

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService delivers notification mail. Delivery is best-effort by
// contract: callers log failures and continue, a failed send never rolls
// back the write it follows.
type EmailService struct {
	client *sendgrid.Client
	from   string
}

func NewEmailService(apiKey, from string) *EmailService {
	var client *sendgrid.Client
	if apiKey != "" {
		client = sendgrid.NewSendClient(apiKey)
	}
	return &EmailService{client: client, from: from}
}

// SendFacultyCredentials mails a newly created faculty account its
// generated password.
func (s *EmailService) SendFacultyCredentials(email, facultyName, password string) error {
	if s.client == nil {
		log.Printf("Email disabled, skipping credentials mail to %s", email)
		return nil
	}

	from := mail.NewEmail("Academic ERP System", s.from)
	to := mail.NewEmail(facultyName, email)
	subject := "Your Academic ERP System Credentials"
	plain := fmt.Sprintf("Hello %s,\n\nYour account has been created.\nEmail: %s\nPassword: %s\n\nPlease change your password after the first login.", facultyName, email, password)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your account has been created.</p><p><strong>Email:</strong> %s<br><strong>Password:</strong> <code>%s</code></p><p>Please change your password after the first login.</p>", facultyName, email, password)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}
