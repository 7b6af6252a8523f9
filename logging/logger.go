package logging

import "go.uber.org/zap"

// New creates a new zap logger for the given environment. production logs json at info,
// development logs console at debug and anything else gets the example logger used locally.
func New(environment string) (*zap.Logger, error) {
	switch environment {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}
