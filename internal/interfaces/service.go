package interfaces

// Service is an outer surface of the daemon exposing the application
// services. Start must return once the service is ready to accept requests.
type Service interface {
	Start() error
	Stop()
	// Addr returns the address the service is bound to, once started.
	Addr() string
}
