// Package logrus adapts a sirupsen/logrus logger to the
// go-dirtree logging interface.
package logrus

import (
	"fmt"
	"sync/atomic"

	logrus "github.com/sirupsen/logrus"

	"github.com/dirtree/go-dirtree/log"
)

type Logrus struct {
	Logger  *logrus.Logger
	Enable  log.Topics
	counter uint64
}

func (l *Logrus) Enabled(topics log.Topics) bool {
	return (l.Enable & topics) != 0
}

func (l *Logrus) Op(name string, args log.M) string {
	if !l.Enabled(log.TopicOp) {
		return ""
	}
	cookie := fmt.Sprintf("%x", atomic.AddUint64(&l.counter, 1))
	l.Logger.WithFields(logrus.Fields{
		"name":   name,
		"cookie": cookie,
	}).WithFields(logrus.Fields(args)).Info("call")
	return cookie
}

func (l *Logrus) Done(name, cookie string, rets log.M) {
	if !l.Enabled(log.TopicOp) {
		return
	}
	l.Logger.WithFields(logrus.Fields{
		"name":   name,
		"cookie": cookie,
	}).WithFields(logrus.Fields(rets)).Info("return")
}

func (l *Logrus) Logf(topics log.Topics, msg string, args ...any) {
	if !l.Enabled(topics) {
		return
	}
	if topics&log.TopicError != 0 {
		l.Logger.Warnf(msg, args...)
		return
	}
	l.Logger.Infof(msg, args...)
}

var _ log.Log = (*Logrus)(nil)

func Default() *Logrus {
	return &Logrus{
		Logger: logrus.New(),
		Enable: log.AllTopics,
	}
}
