package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/text/language"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
	"ngo-backend/internal/logger"
)

// MailSender is satisfied by *sendgrid.Client.
type MailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type contactTemplate struct {
	subjectPrefix string
	heading       string
}

// Index order must match supportedLanguages.
var (
	supportedLanguages = []language.Tag{language.English, language.Bengali}
	languageMatcher    = language.NewMatcher(supportedLanguages)
	contactTemplates   = []contactTemplate{
		{subjectPrefix: "[Contact]", heading: "New message from %s <%s>"},
		{subjectPrefix: "[যোগাযোগ]", heading: "%s <%s> এর কাছ থেকে নতুন বার্তা"},
	}
)

func templateFor(lang string) contactTemplate {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	_, idx, _ := languageMatcher.Match(tag)
	return contactTemplates[idx]
}

type emailService struct {
	sender     MailSender
	fromEmail  string
	fromName   string
	recipients []string // contact recipients, the first is the default
}

// NewEmailService sends through SendGrid. Contact messages may only go to
// recipients; the first one receives messages that name no recipient.
func NewEmailService(apiKey, fromEmail, fromName string, recipients ...string) EmailService {
	return NewEmailServiceWithSender(sendgrid.NewSendClient(apiKey), fromEmail, fromName, recipients...)
}

func NewEmailServiceWithSender(sender MailSender, fromEmail, fromName string, recipients ...string) EmailService {
	s := &emailService{
		sender:    sender,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" && !s.accepts(r) {
			s.recipients = append(s.recipients, r)
		}
	}
	return s
}

func (s *emailService) accepts(addr string) bool {
	for _, r := range s.recipients {
		if strings.EqualFold(r, addr) {
			return true
		}
	}
	return false
}

// SendContact relays a visitor's message to one of the configured
// recipients. The visitor becomes the reply-to address since SendGrid only
// sends from verified senders.
func (s *emailService) SendContact(ctx context.Context, msg domain.ContactEmail) error {
	if len(s.recipients) == 0 {
		return domain.NewValidationError("to", "no recipient configured")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		to = s.recipients[0]
	} else if !s.accepts(to) {
		return domain.NewValidationError("to", "is not an accepted recipient")
	}
	if strings.TrimSpace(msg.From) == "" {
		return domain.NewValidationError("from", "is required")
	}
	if strings.TrimSpace(msg.Message) == "" {
		return domain.NewValidationError("message", "is required")
	}

	tpl := templateFor(msg.Language)
	subject := strings.TrimSpace(tpl.subjectPrefix + " " + msg.Subject)
	heading := fmt.Sprintf(tpl.heading, msg.Name, msg.From)
	plain := heading + "\n\n" + msg.Message
	htmlBody := fmt.Sprintf("<p><strong>%s</strong></p><p>%s</p>",
		html.EscapeString(heading),
		strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>"))

	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail("", to), plain, htmlBody)
	message.SetReplyTo(mail.NewEmail(msg.Name, msg.From))

	return s.send(ctx, "SendContact", message)
}

func (s *emailService) SendStatement(ctx context.Context, to []string, orgName string, st ledger.Statement) error {
	if len(to) == 0 {
		return domain.NewValidationError("to", "no recipients")
	}

	period := st.Period.From.Format("January 2006")
	if st.Period.From.Year() != st.Period.To.Year() || st.Period.From.Month() != st.Period.To.Month() {
		period += " to " + st.Period.To.Format("January 2006")
	}
	subject := fmt.Sprintf("%s financial statement: %s", orgName, period)

	var b strings.Builder
	fmt.Fprintf(&b, "Financial statement for %s\n\n", period)
	fmt.Fprintf(&b, "Opening balance: %s\n", st.OpeningBalance.StringFixed(2))
	fmt.Fprintf(&b, "Donations:       %s\n", st.Totals.Donations.StringFixed(2))
	fmt.Fprintf(&b, "Withdrawals:     %s\n", st.Totals.Withdrawals.StringFixed(2))
	fmt.Fprintf(&b, "Closing balance: %s\n", st.ClosingBalance.StringFixed(2))
	fmt.Fprintf(&b, "\n%d transactions in this period.\n", len(st.Transactions))
	plain := b.String()

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = subject
	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(p)
	message.AddContent(
		mail.NewContent("text/plain", plain),
		mail.NewContent("text/html", "<pre>"+html.EscapeString(plain)+"</pre>"),
	)

	return s.send(ctx, "SendStatement", message)
}

func (s *emailService) send(_ context.Context, op string, message *mail.SGMailV3) error {
	logger.ExternalServiceCall("sendgrid", op, "subject", message.Subject)
	response, err := s.sender.Send(message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", op, err)
		return fmt.Errorf("%w: failed to send email: %v", domain.ErrExternal, err)
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("%w: sendgrid status %d, body: %s", domain.ErrExternal, response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", op, err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", op, nil, "status", response.StatusCode)
	return nil
}
