package claims

import "github.com/sahl-health/nphies-gateway/internal/platform/validate"

// PatientInfo identifies the patient a claim bills for.
type PatientInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`
}

// ProviderInfo identifies the submitting healthcare provider.
type ProviderInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	License string `json:"license"`
}

// ServiceLine is one billed service on a claim.
type ServiceLine struct {
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Date        string  `json:"date,omitempty"`
}

// DiagnosisEntry is one diagnosis on a claim. Type is "primary" or
// "secondary"; entry order is submission order.
type DiagnosisEntry struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Request is a full claim submission.
type Request struct {
	PatientInfo  PatientInfo      `json:"patientInfo"`
	ProviderInfo ProviderInfo     `json:"providerInfo"`
	Services     []ServiceLine    `json:"services"`
	Diagnosis    []DiagnosisEntry `json:"diagnosis"`
	TotalAmount  float64          `json:"totalAmount"`
	ClaimType    string           `json:"claimType"`
}

// Validate runs every claim rule and reports all violations.
func (r Request) Validate() validate.Result {
	in := validate.ClaimInput{
		PatientID:   r.PatientInfo.ID,
		ProviderID:  r.ProviderInfo.ID,
		TotalAmount: r.TotalAmount,
		ClaimType:   r.ClaimType,
	}
	for _, s := range r.Services {
		in.Services = append(in.Services, validate.ClaimService{
			Code:      s.Code,
			Quantity:  s.Quantity,
			UnitPrice: s.UnitPrice,
		})
	}
	for _, d := range r.Diagnosis {
		in.Diagnosis = append(in.Diagnosis, validate.ClaimDiagnosis{Code: d.Code})
	}
	return validate.Claim(in)
}

// Result is the exchange's record of a submitted claim. ClaimID and
// NphiesReference are assigned upstream on acceptance.
type Result struct {
	ClaimID         string  `json:"claimId"`
	NphiesReference string  `json:"nphiesReference,omitempty"`
	Status          string  `json:"status"`
	StatusDate      string  `json:"statusDate,omitempty"`
	ApprovedAmount  float64 `json:"approvedAmount,omitempty"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
}
