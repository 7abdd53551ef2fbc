package audit

import "time"

// Event records one credential lifecycle action. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	// Subject is the credential, exchange or job the action applies to.
	Subject   string
	Wallet    string
	Decision  string
	Reason    string
	RequestID string
}

// Action names an audited lifecycle step.
type Action string

const (
	ActionCredentialVerified  Action = "credential_verified"
	ActionCredentialPreviewed Action = "credential_previewed"
	ActionCredentialIssued    Action = "credential_issued"
	ActionIssuanceStarted     Action = "issuance_started"
	ActionIssuanceFailed      Action = "issuance_failed"
	ActionCredentialRevoked   Action = "credential_revoked"
)
