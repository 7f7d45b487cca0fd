package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/models"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// Address that receives "new user" notifications
	AdminEmail string
}

// Sender delivers one message. Satisfied by SMTPSender, stubbed in tests.
type Sender interface {
	Send(to string, subject string, body string) error
}

type SMTPSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to string, subject string, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

// Notifier builds and sends account lifecycle emails. Sending is
// fire-and-forget: a notification failure must not block approval or
// registration, but it is surfaced to the log rather than swallowed.
type Notifier struct {
	sender     Sender
	adminEmail string
	logger     logger.Logger
}

func NewNotifier(sender Sender, adminEmail string, l logger.Logger) *Notifier {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Notifier{
		sender:     sender,
		adminEmail: adminEmail,
		logger:     l,
	}
}

func (n *Notifier) AdminNewUser(ctx context.Context, user models.User) {
	subject := "New user registration pending approval"
	body := fmt.Sprintf(
		"A new user has registered and is awaiting approval.\n\n"+
			"Username: %s\nEmail: %s\n\n"+
			"Please review and approve the account in the admin panel.\n",
		user.Username, user.Email)

	n.send(n.adminEmail, subject, body)
}

func (n *Notifier) UserApproved(ctx context.Context, user models.User) {
	subject := "Your account has been activated"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your account has been approved by the admin.\n\n"+
			"You can now log in and add, edit or delete your book reviews.\n\n"+
			"Happy reading!\n",
		user.Username)

	n.send(user.Email, subject, body)
}

func (n *Notifier) UserRejected(ctx context.Context, user models.User) {
	subject := "Account registration update"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Thank you for registering.\n\n"+
			"Unfortunately, your account was not approved at this time.\n\n"+
			"Regards,\nBook Review Platform\n",
		user.Username)

	n.send(user.Email, subject, body)
}

func (n *Notifier) send(to string, subject string, body string) {
	if n.sender == nil || to == "" {
		return
	}

	if err := n.sender.Send(to, subject, body); err != nil {
		n.logger.Error("can't send email", "to", to, "subject", subject, "error", err.Error())
	}
}
