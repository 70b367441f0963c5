package utils

import (
	"go.uber.org/zap"
)

// NewLogger returns a development logger when dev is set and a production logger otherwise.
func NewLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
