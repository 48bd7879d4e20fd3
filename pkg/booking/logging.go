package booking

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a booking operation.
type OperationLog struct {
	Operation      string
	UserID         UserID
	ReservationIDs []ReservationID
	EventID        string
	Updated        int
	Status         string
	Error          error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithNotifier wires the collaborator told about newly paid reservations.
func WithNotifier(notifier Notifier) ServiceOption {
	return func(service *Service) {
		service.notifier = notifier
	}
}

// WithMetrics wires workflow counters.
func WithMetrics(metrics Metrics) ServiceOption {
	return func(service *Service) {
		service.metrics = metrics
	}
}
