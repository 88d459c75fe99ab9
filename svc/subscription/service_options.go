package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithProviderTimeout bounds every provider call. Zero disables the bound.
func WithProviderTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = d
	}
}
