package types

import "time"

// HealthResponse is the /health document
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Services  ServiceHealthStatus `json:"services"`
	Version   string              `json:"version"`
}

// ServiceHealthStatus reports per-dependency health
type ServiceHealthStatus struct {
	Storage bool `json:"storage"`
}

// NewHealthResponse derives the overall status from the per-service checks
func NewHealthResponse(services ServiceHealthStatus, version string) HealthResponse {
	status := "healthy"
	if !services.Storage {
		status = "degraded"
	}
	return HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   version,
	}
}

// HashVerificationResponse reports whether an event hash is known to storage
type HashVerificationResponse struct {
	Hash      string    `json:"hash"`
	Exists    bool      `json:"exists"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the JSON body for all error statuses
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// UploadAck acknowledges an upload-complete notification
type UploadAck struct {
	Status      string    `json:"status"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

// RelayStatus is the lifecycle state of a relay
type RelayStatus string

const (
	RelayStatusActive       RelayStatus = "active"
	RelayStatusInactive     RelayStatus = "inactive"
	RelayStatusSuspended    RelayStatus = "suspended"
	RelayStatusProvisioning RelayStatus = "provisioning"
)

// ApprovedRelay describes a relay known to the server
type ApprovedRelay struct {
	ID             string      `json:"id"`
	NetworkAddress string      `json:"networkAddress"`
	PublicKey      string      `json:"publicKey"`
	Region         string      `json:"region"`
	Status         RelayStatus `json:"status"`
	LastSeen       *time.Time  `json:"lastSeen"`
}

// ApprovedRelaysList is the GET /api/v1/relays response
type ApprovedRelaysList struct {
	Relays    []ApprovedRelay `json:"relays"`
	UpdatedAt time.Time       `json:"updated_at"`
}
