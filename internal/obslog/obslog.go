// Package obslog provides the structured-logging entry point threaded
// through translation. It wraps github.com/sirupsen/logrus the same way
// auth.NewAuditLog wraps it for audit trails: a *logrus.Logger is captured
// once at construction, a component field is attached, and every caller
// downstream works with the resulting *logrus.Entry rather than the base
// logger.
package obslog

import "github.com/sirupsen/logrus"

// New returns a *logrus.Entry scoped to component, ready to be threaded
// through an Options struct and on into every pass that wants to log.
func New(base *logrus.Logger, component string) *logrus.Entry {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return base.WithField("component", component)
}

// Discard returns an entry backed by a logger with output disabled, for
// callers that never configured logging explicitly.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// PassFields builds the logrus.Fields every analyzer pass log line carries,
// mirroring the auth package's auditInfo helper: a handful of named fields
// attached once via WithFields rather than repeated inline in every call
// site.
func PassFields(pass string, extra logrus.Fields) logrus.Fields {
	fields := logrus.Fields{"pass": pass}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
