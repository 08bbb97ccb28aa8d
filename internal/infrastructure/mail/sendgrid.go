package mail

import (
	"context"
	"fmt"

	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers order notifications through SendGrid. Content is
// deliberately plain; the notification layer only needs to fire, not to
// template.
type SendGridSender struct {
	apiKey   string
	from     string
	fromName string
}

func NewSendGridSender(apiKey, from, fromName string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, from: from, fromName: fromName}
}

var _ apporder.NotificationSender = (*SendGridSender)(nil)

func (s *SendGridSender) SendOrderConfirmation(ctx context.Context, recipient, orderID, recipientName string) error {
	subject := fmt.Sprintf("Order %s confirmed", orderID)
	body := fmt.Sprintf("Hi %s,\n\nYour order %s has been placed. We'll let you know when it ships.\n", recipientName, orderID)
	return s.send(ctx, recipient, subject, body)
}

func (s *SendGridSender) SendOrderStatusUpdate(ctx context.Context, recipient, orderID, status, recipientName string) error {
	subject := fmt.Sprintf("Order %s is now %s", orderID, status)
	body := fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n", recipientName, orderID, status)
	return s.send(ctx, recipient, subject, body)
}

func (s *SendGridSender) SendOrderTrackingUpdate(ctx context.Context, recipient, orderID, status, location, recipientName string) error {
	subject := fmt.Sprintf("Order %s tracking update", orderID)
	body := fmt.Sprintf("Hi %s,\n\nYour order %s is now %s at %s.\n", recipientName, orderID, status, location)
	return s.send(ctx, recipient, subject, body)
}

func (s *SendGridSender) send(ctx context.Context, to, subject, body string) error {
	_ = ctx // sendgrid-go's Send has no context variant

	if s.apiKey == "" {
		return fmt.Errorf("sendgrid: api key is empty")
	}
	if to == "" {
		return fmt.Errorf("sendgrid: recipient address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.fromName, s.from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: send failed with status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
