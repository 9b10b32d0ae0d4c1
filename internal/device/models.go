// Package device manages the phone credentials that report locations.
package device

import (
	"time"

	id "roadwatch/pkg/domain"
)

// Device is a registered reporting device bound to one subject. The API key
// is stored as a bcrypt hash; the plaintext is shown once at registration.
type Device struct {
	ID         id.DeviceID
	GuardianID id.GuardianID
	SubjectID  id.SubjectID
	Name       string
	APIKeyHash []byte
	LastSeenAt *time.Time
	CreatedAt  time.Time
}
