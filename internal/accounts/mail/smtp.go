package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

// SMTPConfig holds the relay settings and the sender identity.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLS is one of "mandatory", "opportunistic" or "none".
	TLS string

	From    string // bare address
	Product string // display name on the From header
	Origin  string
}

// sender is the part of *gomail.Client the dispatcher uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPDispatcher renders templates and relays them over SMTP.
type SMTPDispatcher struct {
	client  sender
	from    string
	product string
	links   Links
}

func NewSMTPDispatcher(cfg SMTPConfig) (*SMTPDispatcher, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: new smtp client: %w", err)
	}
	return newSMTPDispatcher(client, cfg), nil
}

func newSMTPDispatcher(client sender, cfg SMTPConfig) *SMTPDispatcher {
	product := cfg.Product
	if product == "" {
		product = "User Portal"
	}
	return &SMTPDispatcher{
		client:  client,
		from:    cfg.From,
		product: product,
		links:   Links{Origin: cfg.Origin},
	}
}

func tlsPolicy(s string) gomail.TLSPolicy {
	switch strings.ToLower(s) {
	case "mandatory":
		return gomail.TLSMandatory
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSOpportunistic
	}
}

func (d *SMTPDispatcher) SendVerificationCode(ctx context.Context, u domain.User, rawCode string) error {
	return d.send(ctx, u, templateVerification, SubjectVerification, d.links.VerifyEmail(rawCode))
}

func (d *SMTPDispatcher) SendPasswordResetToken(ctx context.Context, u domain.User, rawToken string) error {
	return d.send(ctx, u, templatePasswordReset, SubjectPasswordReset, d.links.ResetPassword(rawToken))
}

func (d *SMTPDispatcher) send(ctx context.Context, u domain.User, tmpl, subject, url string) error {
	body, err := render(tmpl, templateData{
		FirstName: u.FirstName(),
		Subject:   subject,
		URL:       url,
		Product:   d.product,
	})
	if err != nil {
		return err
	}

	msg, err := d.message(u, body)
	if err != nil {
		return err
	}

	if err := d.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send %s to %s: %w", tmpl, u.Email, err)
	}
	return nil
}

func (d *SMTPDispatcher) message(u domain.User, body rendered) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(d.product, d.from); err != nil {
		return nil, fmt.Errorf("mail: from address: %w", err)
	}
	if err := msg.AddToFormat(u.Name, u.Email); err != nil {
		return nil, fmt.Errorf("mail: to address: %w", err)
	}
	msg.Subject(body.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, body.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, body.HTML)
	return msg, nil
}
