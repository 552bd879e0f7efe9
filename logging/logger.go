package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger instances provide custom logging.
type Logger interface {

	// Log with level ERROR
	Error(...interface{})

	// Log formatted messages with level ERROR
	Errorf(string, ...interface{})

	// Log with level WARN
	Warn(...interface{})

	// Log formatted messages with level WARN
	Warnf(string, ...interface{})

	// Log with level INFO
	Info(...interface{})

	// Log formatted messages with level INFO
	Infof(string, ...interface{})

	// Log with level DEBUG
	Debug(...interface{})

	// Log formatted messages with level DEBUG
	Debugf(string, ...interface{})

	WithFields(map[string]interface{}) Logger
}

// DefaultLog provides a default implementation of the Logger interface,
// logging to the standard logrus logger.
type DefaultLog struct {
	fields map[string]interface{}
}

func New() *DefaultLog {
	return &DefaultLog{fields: make(map[string]interface{})}
}

func (dl *DefaultLog) Error(a ...interface{}) { logrus.WithFields(dl.fields).Error(a...) }
func (dl *DefaultLog) Errorf(f string, a ...interface{}) {
	logrus.WithFields(dl.fields).Errorf(f, a...)
}
func (dl *DefaultLog) Warn(a ...interface{}) { logrus.WithFields(dl.fields).Warn(a...) }
func (dl *DefaultLog) Warnf(f string, a ...interface{}) {
	logrus.WithFields(dl.fields).Warnf(f, a...)
}
func (dl *DefaultLog) Info(a ...interface{}) { logrus.WithFields(dl.fields).Info(a...) }
func (dl *DefaultLog) Infof(f string, a ...interface{}) {
	logrus.WithFields(dl.fields).Infof(f, a...)
}
func (dl *DefaultLog) Debug(a ...interface{}) { logrus.WithFields(dl.fields).Debug(a...) }
func (dl *DefaultLog) Debugf(f string, a ...interface{}) {
	logrus.WithFields(dl.fields).Debugf(f, a...)
}

func (dl *DefaultLog) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(dl.fields)+len(fields))
	for k, v := range dl.fields {
		merged[k] = v
	}

	for k, v := range fields {
		merged[k] = v
	}

	return &DefaultLog{fields: merged}
}
