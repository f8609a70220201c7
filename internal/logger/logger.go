package logger

import (
	"github.com/sirupsen/logrus"
)

// Log — общий логгер приложения. До Init пишет текстом с уровнем info.
var Log = logrus.New()

// Init задаёт уровень и формат логов: JSON в production, текст в development.
func Init(level, env string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	SetTextFormatter()
}

// SetTextFormatter включает текстовый формат с полными метками времени.
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Component возвращает запись с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
