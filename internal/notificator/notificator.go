package notificator

import (
	"fmt"
	"runtime/debug"

	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/pkg/logger"
)

// Sender delivers a text message to one operator channel.
type Sender interface {
	Send(message string) error
	Name() string
}

// Notificator fans a prize announcement out to every configured operator channel.
type Notificator struct {
	logger  *logger.Logger
	senders []Sender
}

func NewNotificator(logger *logger.Logger, senders ...Sender) *Notificator {
	return &Notificator{logger: logger, senders: senders}
}

// Enabled reports whether at least one channel is configured
func (n *Notificator) Enabled() bool {
	return len(n.senders) > 0
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// SendNotification announces claim on every channel. Failures are logged only.
func (n *Notificator) SendNotification(claim *models.ClaimRecord) {
	message := Message(claim)
	for _, sender := range n.senders {
		sender := sender
		n.safeCall(func() {
			if err := sender.Send(message); err != nil {
				n.logger.Error("Failed to send notification", "channel", sender.Name(), "error", err, "claimCode", claim.ClaimCode)
				return
			}
			n.logger.Debug("Notification sent", "channel", sender.Name(), "claimCode", claim.ClaimCode)
		}, sender.Name())
	}
}

// Message renders the operator announcement for claim
func Message(claim *models.ClaimRecord) string {
	return fmt.Sprintf("%s won %s\nclaim code: %s\nat: %s", claim.Nickname, claim.Prize.Label, claim.ClaimCode, claim.At)
}
