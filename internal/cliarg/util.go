package cliarg

import "github.com/sirupsen/logrus"

func logWarning(format string, args ...interface{}) {
	logrus.Warnf(format, args...)
}
