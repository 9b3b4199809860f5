// internal/domain/tracking/errors.go
package tracking

import "fmt"

// Known failure classes. Adapters wrap their causes with one of these; any
// error that does not match one of them is treated as a fault.
var ErrSourceUnavailable = fmt.Errorf("data source unavailable")
var ErrAuthFailure = fmt.Errorf("notifier authentication failed")
var ErrTransportFailure = fmt.Errorf("notifier transport failed")
