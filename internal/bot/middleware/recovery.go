package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic вызывается через defer в горутине обработчика комментария:
//
//	defer middleware.RecoverFromPanic(c.ID)
func RecoverFromPanic(commentID string) {
	r := recover()
	if r == nil {
		return
	}
	log.WithFields(log.Fields{
		"component":  "panic_recovery",
		"comment_id": commentID,
		"panic":      fmt.Sprint(r),
		"stack":      string(debug.Stack()),
	}).Error("ПАНИКА при разборе комментария — восстановлено")
}
