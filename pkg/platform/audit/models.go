package audit

import "time"

// Event is emitted from domain logic to capture key certificate lifecycle
// actions. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    string
	Subject   string // certificate ID
	OwnerID   string
	Actor     string // admin ID for admin-initiated actions
	Decision  string
	Reason    string
	Device    string // human-readable device summary from the User-Agent
	RequestID string
}

const (
	ActionCertificateIssued  = "certificate_issued"
	ActionCertificateRevoked = "certificate_revoked"
	ActionAdminLogin         = "admin_login"
	ActionAdminAdded         = "admin_added"
	ActionAdminRemoved       = "admin_removed"
)
