package nomination

import "time"

// Category is one of the fixed nomination categories.
type Category string

const (
	CategoryInnovation         Category = "innovation"
	CategoryLeadership         Category = "leadership"
	CategoryTeamwork           Category = "teamwork"
	CategoryCustomerExcellence Category = "customer-excellence"
	CategoryAboveAndBeyond     Category = "above-and-beyond"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryInnovation,
	CategoryLeadership,
	CategoryTeamwork,
	CategoryCustomerExcellence,
	CategoryAboveAndBeyond,
}

var categoryLabels = map[Category]string{
	CategoryInnovation:         "Innovation",
	CategoryLeadership:         "Leadership",
	CategoryTeamwork:           "Teamwork",
	CategoryCustomerExcellence: "Customer Excellence",
	CategoryAboveAndBeyond:     "Above & Beyond",
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label for c.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Status is the review state of a nomination.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusAwarded  Status = "awarded"
	StatusRejected Status = "rejected"
)

var statusLabels = map[Status]string{
	StatusPending:  "Pending Review",
	StatusApproved: "Approved",
	StatusAwarded:  "Awarded",
	StatusRejected: "Rejected",
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display label for s.
func (s Status) Label() string {
	return statusLabels[s]
}

// Nomination is one employee's recognition of another.
type Nomination struct {
	ID                string    `json:"id"`
	NomineeID         string    `json:"nomineeId"`
	NomineeName       string    `json:"nomineeName"`
	NomineeRole       string    `json:"nomineeRole"`
	NomineeDepartment string    `json:"nomineeDepartment"`
	NominatorID       string    `json:"nominatorId"`
	NominatorName     string    `json:"nominatorName"`
	Category          Category  `json:"category"`
	Reason            string    `json:"reason"`
	Impact            string    `json:"impact"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	Votes             int       `json:"votes"`
}

// SubmitInput holds the fields a nominator provides.
type SubmitInput struct {
	NomineeID         string   `json:"nomineeId" validate:"required"`
	NomineeName       string   `json:"nomineeName" validate:"required"`
	NomineeRole       string   `json:"nomineeRole"`
	NomineeDepartment string   `json:"nomineeDepartment"`
	NominatorID       string   `json:"nominatorId"`
	NominatorName     string   `json:"nominatorName"`
	Category          Category `json:"category" validate:"required"`
	Reason            string   `json:"reason" validate:"required"`
	Impact            string   `json:"impact"`
}
