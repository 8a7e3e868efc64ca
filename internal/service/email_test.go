package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/ledger"
)

func TestTemplateFor(t *testing.T) {
	assert.Equal(t, "[Contact]", templateFor("en").subjectPrefix)
	assert.Equal(t, "[Contact]", templateFor("").subjectPrefix)
	assert.Equal(t, "[Contact]", templateFor("fr").subjectPrefix)
	assert.Equal(t, "[যোগাযোগ]", templateFor("bn").subjectPrefix)
	assert.Equal(t, "[যোগাযোগ]", templateFor("bn-BD").subjectPrefix)
}

func TestEmailService_SendContact(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sender := new(MockMailSender)
		svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "office@ngo.org")

		sender.On("Send", mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return m.Subject == "[Contact] Volunteering" &&
				m.ReplyTo != nil && m.ReplyTo.Address == "visitor@example.org" &&
				len(m.Personalizations) == 1 && m.Personalizations[0].To[0].Address == "office@ngo.org"
		})).Return(&rest.Response{StatusCode: 202}, nil)

		err := svc.SendContact(ctx, domain.ContactEmail{
			From:    "visitor@example.org",
			Name:    "Visitor",
			Subject: "Volunteering",
			Message: "I would like to help.",
		})
		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("Provider rejects", func(t *testing.T) {
		sender := new(MockMailSender)
		svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "office@ngo.org")
		sender.On("Send", mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "bad key"}, nil)

		err := svc.SendContact(ctx, domain.ContactEmail{From: "v@example.org", Message: "hi"})
		assert.ErrorIs(t, err, domain.ErrExternal)
	})

	t.Run("Transport error", func(t *testing.T) {
		sender := new(MockMailSender)
		svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "office@ngo.org")
		sender.On("Send", mock.Anything).Return(nil, errors.New("timeout")).Once()

		err := svc.SendContact(ctx, domain.ContactEmail{From: "v@example.org", Message: "hi"})
		assert.ErrorIs(t, err, domain.ErrExternal)
		sender.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("Validation", func(t *testing.T) {
		sender := new(MockMailSender)
		svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "")
		assert.ErrorIs(t, svc.SendContact(ctx, domain.ContactEmail{From: "v@example.org", Message: "hi"}), domain.ErrValidation)

		svc = NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "office@ngo.org")
		assert.ErrorIs(t, svc.SendContact(ctx, domain.ContactEmail{Message: "hi"}), domain.ErrValidation)
		assert.ErrorIs(t, svc.SendContact(ctx, domain.ContactEmail{From: "v@example.org"}), domain.ErrValidation)
		sender.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("Rejects outside recipient", func(t *testing.T) {
		sender := new(MockMailSender)
		svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "office@ngo.org", "treasurer@ngo.org")

		err := svc.SendContact(ctx, domain.ContactEmail{To: "someone@elsewhere.example", From: "v@example.org", Message: "hi"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "to", verr.Field)
		sender.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("Accepts configured recipient", func(t *testing.T) {
		sender := new(MockMailSender)
		svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "office@ngo.org", "treasurer@ngo.org")
		sender.On("Send", mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return m.Personalizations[0].To[0].Address == "Treasurer@ngo.org"
		})).Return(&rest.Response{StatusCode: 202}, nil)

		err := svc.SendContact(ctx, domain.ContactEmail{To: "Treasurer@ngo.org", From: "v@example.org", Message: "hi"})
		require.NoError(t, err)
		sender.AssertExpectations(t)
	})
}

func TestEmailService_SendStatement(t *testing.T) {
	sender := new(MockMailSender)
	svc := NewEmailServiceWithSender(sender, "noreply@ngo.org", "NGO", "")

	st := ledger.Statement{
		Period: ledger.PreviousMonth(time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)),
		Totals: ledger.Totals{
			Donations:    decimal.NewFromInt(75000),
			Withdrawals:  decimal.NewFromInt(10000),
			CurrentFunds: decimal.NewFromInt(65000),
		},
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.NewFromInt(65000),
	}

	sender.On("Send", mock.MatchedBy(func(m *mail.SGMailV3) bool {
		return m.Subject == "Helping Hands financial statement: June 2024" &&
			len(m.Personalizations[0].To) == 2 &&
			strings.Contains(m.Content[0].Value, "Closing balance: 65000.00")
	})).Return(&rest.Response{StatusCode: 202}, nil)

	err := svc.SendStatement(context.Background(), []string{"a@ngo.org", "b@ngo.org"}, "Helping Hands", st)
	require.NoError(t, err)
	sender.AssertExpectations(t)

	assert.ErrorIs(t, svc.SendStatement(context.Background(), nil, "Helping Hands", st), domain.ErrValidation)
}
