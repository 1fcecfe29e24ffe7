package domain

const (
	StatusNew         = "new"
	StatusContacted   = "contacted"
	StatusQualified   = "qualified"
	StatusProposal    = "proposal"
	StatusNegotiation = "negotiation"
	StatusWon         = "won"
	StatusLost        = "lost"
)

// Statuses lists the pipeline stages in board order.
var Statuses = []string{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusProposal,
	StatusNegotiation,
	StatusWon,
	StatusLost,
}

func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsClosed reports whether status ends the pipeline.
func IsClosed(status string) bool {
	return status == StatusWon || status == StatusLost
}

// Activity actions written to the lead timeline.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionAssigned      = "assigned"
	ActionStatusChanged = "status_changed"
	ActionImported      = "imported"
	ActionResubmitted   = "resubmitted"
)
