package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// IsTerminal reports whether the payment was already decided and must not change.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentApproved || s == PaymentRejected
}

type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// Status is the terminal payment status an outcome leads to.
func (o Outcome) Status() PaymentStatus {
	if o == OutcomeApprove {
		return PaymentApproved
	}
	return PaymentRejected
}

type MongoPayment struct {
	ID             int64         `bson:"_id"`
	UserID         string        `bson:"user_id"`
	Username       string        `bson:"username"`
	ProofReference string        `bson:"proof_reference"`
	Status         PaymentStatus `bson:"status"`
	SubmittedAt    time.Time     `bson:"submitted_at"`
	DecidedBy      string        `bson:"decided_by,omitempty"`
	DecidedAt      time.Time     `bson:"decided_at"`
}
