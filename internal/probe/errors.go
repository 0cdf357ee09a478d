package probe

import "errors"

// Reasons a configuration change can be rejected.
var (
	ErrLocked              = errors.New("the sampling interval and the list of variables to record cannot be changed after the device has been connected to targets")
	ErrIntervalTooShort    = errors.New("the sampling interval must be at least as long as the simulation resolution")
	ErrIntervalNotMultiple = errors.New("the sampling interval must be a multiple of the simulation resolution")
)

// ConfigurationError reports a rejected configuration change. The attempted
// change is aborted and prior state is left intact; the wrapped sentinel
// identifies the reason.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return "multimeter: " + e.Op + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
