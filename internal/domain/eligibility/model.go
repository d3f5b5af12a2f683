package eligibility

import "github.com/sahl-health/nphies-gateway/internal/platform/validate"

// Request is an insurance eligibility check as submitted by a provider
// client. ServiceType is free text and never validated.
type Request struct {
	PatientID   string `json:"patientId"`
	InsuranceID string `json:"insuranceId"`
	ProviderID  string `json:"providerId"`
	ServiceDate string `json:"serviceDate"`
	ServiceType string `json:"serviceType,omitempty"`
}

// Validate runs every field rule and reports all violations.
func (r Request) Validate() validate.Result {
	return validate.Eligibility(validate.EligibilityInput{
		PatientID:   r.PatientID,
		InsuranceID: r.InsuranceID,
		ProviderID:  r.ProviderID,
		ServiceDate: r.ServiceDate,
	})
}

// Coverage is one covered benefit returned by the exchange.
type Coverage struct {
	ServiceCategory string  `json:"serviceCategory"`
	Covered         bool    `json:"covered"`
	CopayAmount     float64 `json:"copayAmount,omitempty"`
	CopayPercent    float64 `json:"copayPercent,omitempty"`
	AnnualLimit     float64 `json:"annualLimit,omitempty"`
	RemainingLimit  float64 `json:"remainingLimit,omitempty"`
}

// Result is the exchange's eligibility determination.
type Result struct {
	Eligible       bool       `json:"eligible"`
	PolicyNumber   string     `json:"policyNumber,omitempty"`
	PolicyStatus   string     `json:"policyStatus,omitempty"`
	EffectiveDate  string     `json:"effectiveDate,omitempty"`
	ExpiryDate     string     `json:"expiryDate,omitempty"`
	PayerName      string     `json:"payerName,omitempty"`
	CoverageDetail []Coverage `json:"coverageDetails,omitempty"`
}
