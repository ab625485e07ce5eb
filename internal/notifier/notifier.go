// Package notifier wraps the external delivery transports behind one
// deliver-or-fail contract. Delivery is attempted at most once per event;
// retry policy belongs to nobody — failures are logged and dropped.
package notifier

import (
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/denwilliams/pricetracker/config"
)

// Notifier delivers one rendered alert. Returns whether the transport
// accepted the message.
type Notifier interface {
	Deliver(message, title string, priority int) bool
}

// New assembles the configured transports. With neither push nor SMTP
// configured, alerts are logged only.
func New(cfg config.NotifierConfig) Notifier {
	var targets multiNotifier
	if cfg.PushToken != "" && cfg.PushUser != "" {
		targets = append(targets, &pushNotifier{cfg: cfg})
	}
	if cfg.SMTPHost != "" && cfg.MailTo != "" {
		targets = append(targets, &emailNotifier{cfg: cfg})
	}
	if len(targets) == 0 {
		zap.L().Warn("no notification transport configured, alerts will only be logged")
		return logNotifier{}
	}
	return targets
}

// pushNotifier posts to a Pushover-compatible message endpoint.
type pushNotifier struct {
	cfg config.NotifierConfig
}

func (n *pushNotifier) Deliver(message, title string, priority int) bool {
	var code int
	err := gout.POST(n.cfg.PushURL).
		SetTimeout(10 * time.Second).
		SetForm(gout.H{
			"token":    n.cfg.PushToken,
			"user":     n.cfg.PushUser,
			"title":    title,
			"message":  message,
			"priority": priority,
		}).
		Code(&code).
		Do()
	if err != nil {
		zap.L().Warn("push delivery failed", zap.String("title", title), zap.Error(err))
		return false
	}
	if code != http.StatusOK {
		zap.L().Warn("push delivery rejected", zap.String("title", title), zap.Int("status", code))
		return false
	}
	return true
}

// emailNotifier sends alerts through SMTP.
type emailNotifier struct {
	cfg config.NotifierConfig
}

func (n *emailNotifier) Deliver(message, title string, priority int) bool {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.MailFrom)
	m.SetHeader("To", n.cfg.MailTo)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", message)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPasswd)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Warn("email delivery failed", zap.String("title", title), zap.Error(err))
		return false
	}
	return true
}

// multiNotifier fans out to every configured transport; delivery counts as
// long as one transport accepted the message.
type multiNotifier []Notifier

func (n multiNotifier) Deliver(message, title string, priority int) bool {
	delivered := false
	for _, target := range n {
		if target.Deliver(message, title, priority) {
			delivered = true
		}
	}
	return delivered
}

type logNotifier struct{}

func (logNotifier) Deliver(message, title string, priority int) bool {
	zap.L().Info("notification", zap.String("title", title), zap.String("message", message), zap.Int("priority", priority))
	return true
}
