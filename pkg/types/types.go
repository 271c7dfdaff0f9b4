package types

import (
	"time"
)

// RecordTTL is the TTL, in seconds, written on every managed A record
const RecordTTL = 120

// RecordTypeA is the only record type fluxdns manages
const RecordTypeA = "A"

// DirectoryPeer is a node of the hosting network that may answer
// instance-location queries
type DirectoryPeer struct {
	Address string // Host identifier, usually an IPv4 address
}

// TrackedApplication is an application whose DNS record fluxdns maintains
type TrackedApplication struct {
	Name string
	Zone string // DNS zone the application's subdomain lives under
}

// Subdomain returns the raw "<name>.<zone>" form. Use dns.Subdomain for a
// validated, canonical name.
func (a TrackedApplication) Subdomain() string {
	return a.Name + "." + a.Zone
}

// CandidateEndpoint is an address reported by a directory peer as hosting an
// application instance. It has not been verified.
type CandidateEndpoint struct {
	Address string
}

// LiveEndpoint is a candidate that answered the application protocol at probe time
type LiveEndpoint struct {
	Address string
}

// DNSRecord mirrors an A record owned by the DNS provider
type DNSRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// OutcomeKind classifies how a single application's pipeline ended
type OutcomeKind string

const (
	OutcomeNoDirectory  OutcomeKind = "no_directory"
	OutcomeNoCandidates OutcomeKind = "no_candidates"
	OutcomeNoHealthy    OutcomeKind = "no_healthy"
	OutcomeUnchanged    OutcomeKind = "unchanged"
	OutcomeCreated      OutcomeKind = "created"
	OutcomeUpdated      OutcomeKind = "updated"
	OutcomeFailed       OutcomeKind = "failed"
)

// Skipped reports whether DNS was left untouched because no healthy endpoint
// could be established
func (k OutcomeKind) Skipped() bool {
	switch k {
	case OutcomeNoDirectory, OutcomeNoCandidates, OutcomeNoHealthy:
		return true
	}
	return false
}

// Outcome is the result of one application's pipeline run
type Outcome struct {
	App        string        `json:"app"`
	Kind       OutcomeKind   `json:"outcome"`
	Peer       string        `json:"peer,omitempty"`
	Candidates int           `json:"candidates"`
	Live       int           `json:"live"`
	Selected   string        `json:"selected,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// PassReport summarizes one reconciliation pass
type PassReport struct {
	ID           string             `json:"id"`
	StartedAt    time.Time          `json:"started_at"`
	Duration     time.Duration      `json:"duration"`
	Applications int                `json:"applications"`
	Outcomes     map[string]Outcome `json:"outcomes"`
}

// Count returns how many applications ended with the given outcome
func (r *PassReport) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}
