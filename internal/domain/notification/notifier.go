// internal/domain/notification/notifier.go
package notification

import "context"

// Notifier delivers an overhead alert to the configured recipient.
// Send failures wrap tracking.ErrAuthFailure or tracking.ErrTransportFailure.
type Notifier interface {
	// Send delivers the payload. A nil error means delivery was confirmed.
	Send(ctx context.Context, payload Payload) error
	// Verify checks the credentials without sending anything.
	Verify(ctx context.Context) error
}
