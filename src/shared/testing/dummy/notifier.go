package dummy

import (
	"sync"

	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
)

var _ notify.Sender = &Notifier{}

func NewDummyNotifier() *Notifier {
	return &Notifier{}
}

// Notifier records every notification sent so tests can assert on
// count and contents.
type Notifier struct {
	Unavailable bool
	mutex       sync.Mutex
	sent        []notify.Notification
}

func (n *Notifier) Send(notification notify.Notification) error {
	if n.Unavailable {
		return NetworkFailure
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.sent = append(n.sent, notification)
	return nil
}

func (n *Notifier) Sent() []notify.Notification {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	sent := make([]notify.Notification, len(n.sent))
	copy(sent, n.sent)
	return sent
}

// SentTo filters recorded notifications down to one owner.
func (n *Notifier) SentTo(ownerID string) []notify.Notification {
	notifications := []notify.Notification{}
	for _, notification := range n.Sent() {
		if notification.OwnerID == ownerID {
			notifications = append(notifications, notification)
		}
	}

	return notifications
}
