// Package notify delivers user-facing notifications. The default
// implementation just logs; a real delivery channel plugs in behind the
// same interface.
package notify

import (
	"log"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
)

var _ domain.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the process log. Zero value is usable.
type LogNotifier struct{}

// Notify logs the notification and returns immediately.
func (LogNotifier) Notify(userID, title, body string) {
	log.Printf("notify: to=%s title=%q body=%q", userID, title, body)
}
