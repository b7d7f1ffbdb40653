package alerts

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// BeeepSender raises native desktop notifications; used on the
// headless CLI path where no Fyne app is running.
type BeeepSender struct {
	logger *slog.Logger
}

func NewBeeepSender(logger *slog.Logger) *BeeepSender {
	return &BeeepSender{logger: logger}
}

func (s *BeeepSender) Send(title, body string) {
	if err := beeep.Notify(title, body, ""); err != nil {
		s.logger.Warn("send desktop notification", "error", err)
	}
}
