package passwordless

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-passwordless-api/internal/domain"
	"github.com/go-passwordless-api/internal/infrastructure/email"
	"github.com/go-passwordless-api/internal/infrastructure/sms"
)

// MessageContext carries the delivery templates for one send. The fields are
// opaque to the token engine; they are formatted with the token key and
// forwarded to the transport as-is.
type MessageContext struct {
	EmailSubject   string
	EmailPlaintext string // format string, receives the token key
	MobileMessage  string // format string, receives the token key
}

// Dispatcher hands a generated token key to the email or SMS sink for the
// requested alias type. Transport failures are logged and reported as false,
// never as an error: the caller turns false into a generic "try again later"
// so provider internals cannot leak to end users.
type Dispatcher struct {
	email  email.Sender
	sms    sms.Sender
	logger *slog.Logger
}

func NewDispatcher(emailSender email.Sender, smsSender sms.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{email: emailSender, sms: smsSender, logger: logger}
}

func (d *Dispatcher) Send(ctx context.Context, user *domain.User, aliasType domain.AliasType, key string, msg MessageContext) bool {
	switch aliasType {
	case domain.AliasEmail:
		body := fmt.Sprintf(msg.EmailPlaintext, key)
		if err := d.email.Send(ctx, user.Email, msg.EmailSubject, body); err != nil {
			d.logger.Warn("email delivery failed", "user_id", user.UserID, "err", err)
			return false
		}
		return true
	case domain.AliasMobile:
		body := fmt.Sprintf(msg.MobileMessage, key)
		if err := d.sms.Send(ctx, user.Mobile, body); err != nil {
			d.logger.Warn("sms delivery failed", "user_id", user.UserID, "err", err)
			return false
		}
		return true
	default:
		// Unsupported channel is a programmer error, not a transport failure.
		d.logger.Error("dispatch to unsupported alias type", "alias_type", aliasType)
		return false
	}
}
