package dispatcher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

const (
	transientDismiss = 3 * time.Second
	resultDismiss    = 10 * time.Second
)

type Notification struct {
	Level      Level  `json:"level"`
	Message    string `json:"message"`
	Persistent bool   `json:"persistent"`
}

// DismissAfter is how long the notification stays on screen, zero means
// until the user closes it.
func (n Notification) DismissAfter() time.Duration {
	switch {
	case n.Persistent:
		return 0
	case n.Level == LevelError:
		return resultDismiss
	default:
		return transientDismiss
	}
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification)
}

// LogNotifier writes notifications to the request log, for surfaces that
// return the outcome to the user themselves.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) {
	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"level":      n.Level,
		"persistent": n.Persistent,
	})

	if n.Level == LevelError {
		logger.Warn(n.Message)
		return
	}
	logger.Info(n.Message)
}

func success(message string) Notification {
	return Notification{Level: LevelSuccess, Message: message}
}

func failure(message string, persistent bool) Notification {
	return Notification{Level: LevelError, Message: message, Persistent: persistent}
}

// PrintNotifier writes notifications as lines of text, for the terminal.
type PrintNotifier struct {
	Out io.Writer
}

func (p PrintNotifier) Notify(_ context.Context, n Notification) {
	if n.Message == "" {
		return
	}
	fmt.Fprintf(p.Out, "[%s] %s\n", n.Level, n.Message)
}
