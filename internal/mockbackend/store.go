package mockbackend

import (
	"sync"

	"github.com/google/uuid"
)

// Exchange statuses reported while an async job is in flight.
var progression = []string{"offer_sent", "request_received"}

// exchange is one issuance tracked by exchange id or job id.
type exchange struct {
	id           string
	credentialID string
	connectionID string
	polls        int
	pollsToIssue int
	// finalStatus is reported once polls reach pollsToIssue.
	finalStatus string
	revoked     bool
}

func (e *exchange) status() string {
	if e.revoked {
		return "revoked"
	}
	if e.polls >= e.pollsToIssue {
		return e.finalStatus
	}
	return progression[e.polls%len(progression)]
}

// store is the in-memory state of the mock backend.
type store struct {
	mu          sync.Mutex
	exchanges   map[string]*exchange
	credentials map[string]*exchange
	connections map[string]string
}

func newStore() *store {
	return &store{
		exchanges:   make(map[string]*exchange),
		credentials: make(map[string]*exchange),
		connections: make(map[string]string),
	}
}

// open registers an exchange under id with a fresh credential and connection.
func (s *store) open(id string, pollsToIssue int, finalStatus string) *exchange {
	e := &exchange{
		id:           id,
		credentialID: "urn:uuid:" + uuid.NewString(),
		connectionID: uuid.NewString(),
		pollsToIssue: pollsToIssue,
		finalStatus:  finalStatus,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges[e.id] = e
	s.credentials[e.credentialID] = e
	s.connections[e.connectionID] = "active"
	return e
}

// poll advances the exchange by one status request and returns its status.
func (s *store) poll(id string) (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exchanges[id]
	if !ok {
		return "", "", false
	}
	current := e.status()
	if e.polls < e.pollsToIssue {
		e.polls++
	}
	credentialID := ""
	if current == statusAcked || e.revoked {
		credentialID = e.credentialID
	}
	return current, credentialID, true
}

func (s *store) revoke(credentialID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.credentials[credentialID]
	if !ok {
		return false
	}
	e.revoked = true
	s.connections[e.connectionID] = "inactive"
	return true
}

func (s *store) connection(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.connections[id]
	return status, ok
}

func (s *store) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}
