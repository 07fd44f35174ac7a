package logging

import "go.uber.org/zap"

// New returns the global sugared logger, named for the component using it
func New(name string) *zap.SugaredLogger {
	return zap.S().Named(name)
}
