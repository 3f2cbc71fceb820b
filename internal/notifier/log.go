package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// LogSender prints notifications instead of showing them. Used for
// --dry-run and machines without the tray app.
type LogSender struct {
	Out io.Writer
}

func NewLogSender() *LogSender {
	return &LogSender{Out: os.Stdout}
}

func (l *LogSender) Send(_ context.Context, n models.Notification) error {
	logger.Info("Notification", "id", n.ID, "habit", n.Payload.HabitID, "text", FormatText(n))
	_, err := fmt.Fprintf(l.Out, "[%s] %s\n", n.Trigger.Date.Format("Mon "+constants.TimeFormat), FormatText(n))
	return err
}
