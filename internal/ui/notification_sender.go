package ui

import (
	"strings"

	"fyne.io/fyne/v2"
)

// FyneNotificationSender bridges temperature alerts to native Fyne
// notifications.
type FyneNotificationSender struct {
	app fyne.App
}

func NewFyneNotificationSender(app fyne.App) *FyneNotificationSender {
	return &FyneNotificationSender{app: app}
}

func (s *FyneNotificationSender) Send(title, body string) {
	if s == nil || s.app == nil {
		return
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" && body == "" {
		return
	}

	fyne.Do(func() {
		s.app.SendNotification(fyne.NewNotification(title, body))
	})
}
