package service

import (
	"context"
	"strings"
	"testing"

	"garage-backend/internal/config"
	"garage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	resp, _ := args.Get(0).(*rest.Response)
	return resp, args.Error(1)
}

func sentTo(addr string) any {
	return mock.MatchedBy(func(m *mail.SGMailV3) bool {
		return len(m.Personalizations) == 1 &&
			len(m.Personalizations[0].To) == 1 &&
			m.Personalizations[0].To[0].Address == addr
	})
}

func htmlBody(m *mail.SGMailV3) string {
	for _, c := range m.Content {
		if c.Type == "text/html" {
			return c.Value
		}
	}
	return ""
}

func TestNotificationService_NoKeyIsNoop(t *testing.T) {
	n := NewNotificationService(config.NotificationConfig{})
	_, ok := n.(noopNotifier)
	require.True(t, ok)
	assert.NoError(t, n.ReportFiled(context.Background(), &domain.Report{ID: uuid.New()}))
}

func TestSendgridNotifier(t *testing.T) {
	ctx := context.Background()
	cfg := config.NotificationConfig{FromEmail: "shop@example.com", FromName: "Garage", OwnerEmail: "boss@example.com"}

	t.Run("ReportFiledGoesToOwner", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("SendWithContext", ctx, sentTo("boss@example.com")).Return(&rest.Response{StatusCode: 202}, nil).Once()
		n := newSendgridNotifier(sender, cfg)

		err := n.ReportFiled(ctx, &domain.Report{Title: "Leak", Description: "Oil", ReporterType: domain.ReporterMember})
		assert.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("TierChangedGoesToMember", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("SendWithContext", ctx, sentTo("ana@example.com")).Return(&rest.Response{StatusCode: 202}, nil).Once()
		n := newSendgridNotifier(sender, cfg)

		err := n.TierChanged(ctx, &domain.Member{Name: "Ana", Email: "ana@example.com"}, domain.TierBronze, domain.TierSilver)
		assert.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("ReportFieldsAreEscaped", func(t *testing.T) {
		var sent *mail.SGMailV3
		sender := new(mockSender)
		sender.On("SendWithContext", ctx, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*mail.SGMailV3) }).
			Return(&rest.Response{StatusCode: 202}, nil).Once()
		n := newSendgridNotifier(sender, cfg)

		err := n.ReportFiled(ctx, &domain.Report{
			Title:        "<script>alert(1)</script>",
			Description:  `<a href="http://evil.example">click</a>`,
			ReporterType: domain.ReporterMember,
		})
		require.NoError(t, err)
		require.NotNil(t, sent)
		body := htmlBody(sent)
		assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
		assert.False(t, strings.Contains(body, "<script>"))
		assert.False(t, strings.Contains(body, "<a href"))
	})

	t.Run("MemberNameIsEscaped", func(t *testing.T) {
		var sent *mail.SGMailV3
		sender := new(mockSender)
		sender.On("SendWithContext", ctx, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*mail.SGMailV3) }).
			Return(&rest.Response{StatusCode: 202}, nil).Once()
		n := newSendgridNotifier(sender, cfg)

		err := n.TierChanged(ctx, &domain.Member{Name: "<b>Ana</b>", Email: "ana@example.com"}, domain.TierBronze, domain.TierSilver)
		require.NoError(t, err)
		body := htmlBody(sent)
		assert.Contains(t, body, "Hi &lt;b&gt;Ana&lt;/b&gt;,")
		assert.Contains(t, body, "<b>silver</b>")
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("SendWithContext", ctx, mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil).Once()
		n := newSendgridNotifier(sender, cfg)

		err := n.TierChanged(ctx, &domain.Member{Name: "Ana", Email: "ana@example.com"}, domain.TierBronze, domain.TierSilver)
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("NoOwnerEmail", func(t *testing.T) {
		sender := new(mockSender)
		n := newSendgridNotifier(sender, config.NotificationConfig{FromEmail: "shop@example.com"})
		assert.NoError(t, n.ReportFiled(ctx, &domain.Report{}))
		sender.AssertNotCalled(t, "SendWithContext", mock.Anything, mock.Anything)
	})
}
