package service

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

type NotificationOptions struct {
	Body string `json:"body"`
	Icon string `json:"icon"`
}

// Displayer puts a notification in front of the user. Implementations are
// fire-and-forget from the caller's point of view.
type Displayer interface {
	Show(title string, opts NotificationOptions) error
}

type DisplayerFunc func(title string, opts NotificationOptions) error

func (f DisplayerFunc) Show(title string, opts NotificationOptions) error {
	return f(title, opts)
}

// LogDisplayer writes notifications to the structured log. Useful on headless
// hosts where there is no notification tray.
type LogDisplayer struct{}

func (LogDisplayer) Show(title string, opts NotificationOptions) error {
	log.Info("notification", zap.String("title", title), zap.String("body", opts.Body), zap.String("icon", opts.Icon))
	return nil
}

// DesktopDisplayer shows notifications in the operating system tray.
type DesktopDisplayer struct{}

func (DesktopDisplayer) Show(title string, opts NotificationOptions) error {
	return beeep.Notify(title, opts.Body, opts.Icon)
}

func NewDisplayer(kind string) Displayer {
	switch kind {
	case DisplayDesktop:
		return DesktopDisplayer{}
	default:
		return LogDisplayer{}
	}
}
