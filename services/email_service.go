package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/net/html"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Mailer delivers a plain text email to one recipient
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, text string) error
}

// EmailService handles sending emails via SendGrid
type EmailService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Mailer = (*EmailService)(nil)

// NewEmailService creates a new email service instance
func NewEmailService(apiKey, appName, fromAddress string) *EmailService {
	return &EmailService{
		key:        apiKey,
		from:       sgmail.NewEmail(appName, fromAddress),
		subjPrefix: "[" + appName + "] ",
	}
}

// IsConfigured checks if an API key is set
func (e *EmailService) IsConfigured() bool {
	return e != nil && e.key != ""
}

func (e *EmailService) prepare(toEmail, toName, subject, text string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = e.subjPrefix + subject
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(e.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", plainText(text)))
	return m
}

// Send delivers the message
func (e *EmailService) Send(ctx context.Context, toEmail, toName, subject, text string) error {
	if !e.IsConfigured() {
		log.Debugf("SendGrid not configured; skipping email to %s", toEmail)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(e.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(e.prepare(toEmail, toName, subject, text))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected email with status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// plainText flattens markup from rich text editors; block elements become line breaks
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return s
			}
			lines := strings.Split(b.String(), "\n")
			out := make([]string, 0, len(lines))
			for _, line := range lines {
				if line = strings.Join(strings.Fields(line), " "); line != "" {
					out = append(out, line)
				}
			}
			return strings.Join(out, "\n")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); tag {
			case "br", "p", "div", "li", "h1", "h2", "h3", "tr":
				b.WriteString("\n")
			case "script", "style":
				if tt == html.StartTagToken {
					skipUntilEnd(z, tag)
				}
			}
		}
	}
}

func skipUntilEnd(z *html.Tokenizer, tag string) {
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				return
			}
		}
	}
}
