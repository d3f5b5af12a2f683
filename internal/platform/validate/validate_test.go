package validate

import (
	"strings"
	"testing"
)

func TestPatientID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"1234567890", true},
		{"0000000000", true},
		{"123456789", false},   // 9 digits
		{"12345678901", false}, // 11 digits
		{"12345678a0", false},
		{"", false},
		{" 1234567890", false},
	}
	for _, tc := range cases {
		if got := PatientID(tc.in); got != tc.want {
			t.Errorf("PatientID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestProviderID(t *testing.T) {
	if !ProviderID("1234567") {
		t.Error("expected 7 digits to be valid")
	}
	for _, in := range []string{"123456", "12345678", "12a4567", ""} {
		if ProviderID(in) {
			t.Errorf("ProviderID(%q) should be invalid", in)
		}
	}
}

func TestInsuranceID(t *testing.T) {
	for _, in := range []string{"ABC12345", "ABC-12345", "abc12345", "ABC1234", "ABCDEFGHIJKLM"} {
		valid := in == "ABC12345"
		if got := InsuranceID(in); got != valid {
			t.Errorf("InsuranceID(%q) = %v, want %v", in, got, valid)
		}
	}
	if !InsuranceID("ABCDEFGH1234") {
		t.Error("expected 12-char uppercase alphanumeric to be valid")
	}
}

func TestServiceCode(t *testing.T) {
	if !ServiceCode("SVC") || !ServiceCode("ABCDE12345") {
		t.Error("expected 3 and 10 character codes to be valid")
	}
	for _, in := range []string{"SV", "ABCDE123456", "svc123", "SVC-1"} {
		if ServiceCode(in) {
			t.Errorf("ServiceCode(%q) should be invalid", in)
		}
	}
}

func TestDiagnosisCode(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"A12", true},
		{"Z99", true},
		{"A12.3", true},
		{"A12.34", true},
		{"a12", false},
		{"12.3", false},
		{"A12.345", false},
		{"A1", false},
		{"AB12", false},
	}
	for _, tc := range cases {
		if got := DiagnosisCode(tc.in); got != tc.want {
			t.Errorf("DiagnosisCode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestServiceDate(t *testing.T) {
	if !ServiceDate("2024-01-15") {
		t.Error("expected 2024-01-15 to parse")
	}
	for _, in := range []string{"invalid-date", "2024-13-01", "2024-02-30", "15/01/2024", ""} {
		if ServiceDate(in) {
			t.Errorf("ServiceDate(%q) should be invalid", in)
		}
	}
}

func TestEligibility_AllValid(t *testing.T) {
	r := Eligibility(EligibilityInput{
		PatientID:   "1234567890",
		InsuranceID: "ABC123456",
		ProviderID:  "1234567",
		ServiceDate: "2024-01-15",
	})
	if !r.Valid() {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	if len(r.Errors) != 0 {
		t.Errorf("expected empty error list, got %d", len(r.Errors))
	}
}

func TestEligibility_NoShortCircuit(t *testing.T) {
	r := Eligibility(EligibilityInput{
		PatientID:   "123",
		InsuranceID: "AB",
		ProviderID:  "12345678",
		ServiceDate: "invalid-date",
	})
	if r.Valid() {
		t.Fatal("expected invalid result")
	}
	if len(r.Errors) != 4 {
		t.Fatalf("expected 4 errors (one per failing check), got %d: %v", len(r.Errors), r.Errors)
	}
	// Order is contractual: patient, insurance, provider, date.
	if !strings.Contains(r.Errors[0], "patient ID") {
		t.Errorf("expected patient error first, got %q", r.Errors[0])
	}
	if !strings.Contains(r.Errors[3], "service date") {
		t.Errorf("expected date error last, got %q", r.Errors[3])
	}
}

func TestClaim_AccumulatesAllErrors(t *testing.T) {
	r := Claim(ClaimInput{
		PatientID:  "1234567890",
		ProviderID: "1234567",
		Services: []ClaimService{
			{Code: "bad-code", Quantity: 0, UnitPrice: -5},
		},
		Diagnosis: []ClaimDiagnosis{
			{Code: "invalid"},
		},
		TotalAmount: 0,
		ClaimType:   "cosmetic",
	})
	if r.Valid() {
		t.Fatal("expected invalid result")
	}
	if len(r.Errors) <= 5 {
		t.Errorf("expected more than 5 errors, got %d: %v", len(r.Errors), r.Errors)
	}
}

func TestClaim_IndexedEntryErrors(t *testing.T) {
	r := Claim(ClaimInput{
		PatientID:  "1234567890",
		ProviderID: "1234567",
		Services: []ClaimService{
			{Code: "SVC001", Quantity: 1, UnitPrice: 100},
			{Code: "xx", Quantity: 2, UnitPrice: 50},
		},
		Diagnosis:   []ClaimDiagnosis{{Code: "A12.3"}},
		TotalAmount: 200,
		ClaimType:   "outpatient",
	})
	if len(r.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %v", r.Errors)
	}
	if !strings.HasPrefix(r.Errors[0], "services[1]:") {
		t.Errorf("expected error tagged with entry index 1, got %q", r.Errors[0])
	}
}

func TestClaim_Valid(t *testing.T) {
	r := Claim(ClaimInput{
		PatientID:  "1234567890",
		ProviderID: "1234567",
		Services: []ClaimService{
			{Code: "SVC001", Quantity: 2, UnitPrice: 150.5},
		},
		Diagnosis:   []ClaimDiagnosis{{Code: "J45"}, {Code: "E11.9"}},
		TotalAmount: 301,
		ClaimType:   "outpatient",
	})
	if !r.Valid() {
		t.Fatalf("expected valid claim, got %v", r.Errors)
	}
}

func TestPreAuth(t *testing.T) {
	valid := PreAuthInput{
		PatientID:            "1234567890",
		ProviderID:           "1234567",
		ServiceRequested:     "MRI lumbar spine",
		MedicalJustification: "Persistent lower back pain unresponsive to conservative treatment",
		EstimatedCost:        2500,
		Urgency:              "routine",
	}
	if r := PreAuth(valid); !r.Valid() {
		t.Fatalf("expected valid pre-auth, got %v", r.Errors)
	}

	invalid := valid
	invalid.MedicalJustification = "too short"
	invalid.EstimatedCost = 0
	invalid.Urgency = "whenever"
	r := PreAuth(invalid)
	if len(r.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %v", r.Errors)
	}
}

// Validators are pure: the same input must always produce the same result.
func TestValidatorsIdempotent(t *testing.T) {
	in := EligibilityInput{PatientID: "123", InsuranceID: "AB", ProviderID: "1", ServiceDate: "x"}
	first := Eligibility(in)
	second := Eligibility(in)
	if len(first.Errors) != len(second.Errors) {
		t.Fatal("repeated validation produced different results")
	}
	for i := range first.Errors {
		if first.Errors[i] != second.Errors[i] {
			t.Fatalf("error %d differs between runs", i)
		}
	}
}
