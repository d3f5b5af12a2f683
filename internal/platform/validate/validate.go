// Package validate holds the NPHIES submission format rules. Every check is
// a pure function: validators never perform I/O and never return errors —
// invalidity is reported through the returned Result so callers can surface
// the full list of violations in one response.
package validate

import (
	"fmt"
	"regexp"
	"time"
)

var (
	patientIDRe   = regexp.MustCompile(`^\d{10}$`)
	providerIDRe  = regexp.MustCompile(`^\d{7}$`)
	insuranceIDRe = regexp.MustCompile(`^[A-Z0-9]{8,12}$`)
	// Canonical service code rule: 3-10 uppercase alphanumerics.
	serviceCodeRe   = regexp.MustCompile(`^[A-Z0-9]{3,10}$`)
	diagnosisCodeRe = regexp.MustCompile(`^[A-Z][0-9]{2}(\.[0-9]{1,2})?$`)
)

// Result accumulates the outcome of a validation pass. Errors appear in the
// order the checks run; that order is part of the contract.
type Result struct {
	Errors []string
}

// Valid reports whether no check failed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

func (r *Result) addf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// PatientID reports whether s is a national patient identifier:
// exactly 10 ASCII digits.
func PatientID(s string) bool { return patientIDRe.MatchString(s) }

// ProviderID reports whether s is an NPHIES provider identifier:
// exactly 7 ASCII digits.
func ProviderID(s string) bool { return providerIDRe.MatchString(s) }

// InsuranceID reports whether s is a member insurance identifier:
// 8-12 uppercase alphanumeric characters.
func InsuranceID(s string) bool { return insuranceIDRe.MatchString(s) }

// ServiceCode reports whether s is a procedure/service code:
// 3-10 uppercase alphanumeric characters.
func ServiceCode(s string) bool { return serviceCodeRe.MatchString(s) }

// DiagnosisCode reports whether s is an ICD-10-like diagnosis code:
// one uppercase letter, two digits, optional "." plus 1-2 digits.
func DiagnosisCode(s string) bool { return diagnosisCodeRe.MatchString(s) }

// ServiceDate reports whether s parses as a YYYY-MM-DD calendar date.
func ServiceDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// EligibilityInput is the field set an eligibility check is validated on.
type EligibilityInput struct {
	PatientID   string
	InsuranceID string
	ProviderID  string
	ServiceDate string
}

// Eligibility runs every eligibility field check unconditionally and
// collects each failure; there is no short-circuit.
func Eligibility(in EligibilityInput) Result {
	var r Result
	if !PatientID(in.PatientID) {
		r.addf("Invalid patient ID: must be exactly 10 digits")
	}
	if !InsuranceID(in.InsuranceID) {
		r.addf("Invalid insurance ID: must be 8-12 uppercase alphanumeric characters")
	}
	if !ProviderID(in.ProviderID) {
		r.addf("Invalid provider ID: must be exactly 7 digits")
	}
	if !ServiceDate(in.ServiceDate) {
		r.addf("Invalid service date: must be a valid YYYY-MM-DD date")
	}
	return r
}

// ClaimService is one billed service line on a claim.
type ClaimService struct {
	Code      string
	Quantity  int
	UnitPrice float64
}

// ClaimDiagnosis is one diagnosis entry on a claim.
type ClaimDiagnosis struct {
	Code string
}

// ClaimInput is the field set a claim submission is validated on.
type ClaimInput struct {
	PatientID   string
	ProviderID  string
	Services    []ClaimService
	Diagnosis   []ClaimDiagnosis
	TotalAmount float64
	ClaimType   string
}

// ClaimTypes enumerates the claim types NPHIES accepts.
var ClaimTypes = map[string]bool{
	"inpatient":  true,
	"outpatient": true,
	"pharmacy":   true,
	"dental":     true,
}

// Claim validates a claim submission: identifiers first, then each service
// line and diagnosis entry (errors tagged with the entry index), then the
// claim type. Every check runs regardless of earlier failures.
func Claim(in ClaimInput) Result {
	var r Result
	if !PatientID(in.PatientID) {
		r.addf("Invalid patient ID: must be exactly 10 digits")
	}
	if !ProviderID(in.ProviderID) {
		r.addf("Invalid provider ID: must be exactly 7 digits")
	}
	for i, svc := range in.Services {
		if !ServiceCode(svc.Code) {
			r.addf("services[%d]: invalid service code: must be 3-10 uppercase alphanumeric characters", i)
		}
		if svc.Quantity <= 0 {
			r.addf("services[%d]: quantity must be greater than zero", i)
		}
		if svc.UnitPrice <= 0 {
			r.addf("services[%d]: unit price must be greater than zero", i)
		}
	}
	for i, dx := range in.Diagnosis {
		if !DiagnosisCode(dx.Code) {
			r.addf("diagnosis[%d]: invalid diagnosis code: must match ICD-10 format (e.g. A12 or A12.3)", i)
		}
	}
	if in.TotalAmount <= 0 {
		r.addf("Total amount must be greater than zero")
	}
	if !ClaimTypes[in.ClaimType] {
		r.addf("Invalid claim type: must be one of inpatient, outpatient, pharmacy, dental")
	}
	return r
}

// PreAuthInput is the field set a pre-authorization request is validated on.
type PreAuthInput struct {
	PatientID            string
	ProviderID           string
	ServiceRequested     string
	MedicalJustification string
	EstimatedCost        float64
	Urgency              string
}

// UrgencyLevels enumerates the pre-authorization urgency values.
var UrgencyLevels = map[string]bool{
	"routine":   true,
	"urgent":    true,
	"emergency": true,
}

// PreAuth validates a pre-authorization request with the same
// full-accumulation semantics as Eligibility and Claim.
func PreAuth(in PreAuthInput) Result {
	var r Result
	if !PatientID(in.PatientID) {
		r.addf("Invalid patient ID: must be exactly 10 digits")
	}
	if !ProviderID(in.ProviderID) {
		r.addf("Invalid provider ID: must be exactly 7 digits")
	}
	if in.ServiceRequested == "" {
		r.addf("Service requested must not be empty")
	}
	if len(in.MedicalJustification) < 10 {
		r.addf("Medical justification must be at least 10 characters")
	}
	if in.EstimatedCost <= 0 {
		r.addf("Estimated cost must be greater than zero")
	}
	if !UrgencyLevels[in.Urgency] {
		r.addf("Invalid urgency: must be one of routine, urgent, emergency")
	}
	return r
}
