package preauth

import "github.com/sahl-health/nphies-gateway/internal/platform/validate"

// Request is an advance approval request for a service not yet rendered.
type Request struct {
	PatientID            string   `json:"patientId"`
	ProviderID           string   `json:"providerId"`
	ServiceRequested     string   `json:"serviceRequested"`
	MedicalJustification string   `json:"medicalJustification"`
	EstimatedCost        float64  `json:"estimatedCost"`
	Urgency              string   `json:"urgency"`
	SupportingDocuments  []string `json:"supportingDocuments,omitempty"`
}

// Validate runs every pre-authorization rule and reports all violations.
func (r Request) Validate() validate.Result {
	return validate.PreAuth(validate.PreAuthInput{
		PatientID:            r.PatientID,
		ProviderID:           r.ProviderID,
		ServiceRequested:     r.ServiceRequested,
		MedicalJustification: r.MedicalJustification,
		EstimatedCost:        r.EstimatedCost,
		Urgency:              r.Urgency,
	})
}

// submission is the wire form sent upstream. RequestID is a gateway-minted
// idempotency key so a future retry policy change cannot double-authorize.
type submission struct {
	Request
	RequestID string `json:"requestId"`
}

// Result is the exchange's record of a pre-authorization decision.
type Result struct {
	PreAuthID      string  `json:"preAuthId"`
	Status         string  `json:"status"`
	ApprovedAmount float64 `json:"approvedAmount,omitempty"`
	ValidUntil     string  `json:"validUntil,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}
