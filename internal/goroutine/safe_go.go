package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/roadwatch/internal/logger"
)

// Logger — то, что нужно для записи паники.
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

// RecoveryHandler перехватывает panic в фоновых горутинах.
type RecoveryHandler struct {
	logger Logger
}

func NewRecoveryHandler(l Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: l}
}

// SafeGo запускает fn в горутине; panic логируется вместе со стеком.
func (rh *RecoveryHandler) SafeGo(name string, fn func()) {
	go func() {
		defer rh.recover(name)
		fn()
	}()
}

// SafeGoWithContext — то же, что SafeGo, но передаёт ctx в fn.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer rh.recover(name)
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recover(name string) {
	if r := recover(); r != nil {
		rh.logger.WithFields(logrus.Fields{
			"goroutine": name,
			"panic":     r,
			"stack":     string(debug.Stack()),
		}).Error("panic в горутине")
	}
}

// SafeGo запускает горутину через общий логгер приложения.
func SafeGo(name string, fn func()) {
	NewRecoveryHandler(logger.Log).SafeGo(name, fn)
}

// SafeGoWithContext запускает горутину с контекстом через общий логгер приложения.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	NewRecoveryHandler(logger.Log).SafeGoWithContext(ctx, name, fn)
}
