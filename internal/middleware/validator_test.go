package middleware

import "testing"

func TestValidatePageURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/pricing", false},
		{"http://example.com", false},
		{"", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"not a url at all://", true},
	}
	for _, tc := range tests {
		err := ValidatePageURL(tc.url)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidatePageURL(%q) err = %v, wantErr %v", tc.url, err, tc.wantErr)
		}
	}
}

func TestValidateCriterion(t *testing.T) {
	tests := []struct {
		criterion string
		wantErr   bool
	}{
		{"1.1.1", false},
		{"1.4.13", false},
		{"", true},
		{"1.1", true},
		{"a.b.c", true},
	}
	for _, tc := range tests {
		err := ValidateCriterion(tc.criterion)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateCriterion(%q) err = %v, wantErr %v", tc.criterion, err, tc.wantErr)
		}
	}
}

func TestValidateResultStatus(t *testing.T) {
	for _, ok := range []string{"pass", "fail", "manual", "PASS"} {
		if err := ValidateResultStatus(ok); err != nil {
			t.Errorf("ValidateResultStatus(%q) unexpected err: %v", ok, err)
		}
	}
	if err := ValidateResultStatus("skipped"); err == nil {
		t.Error("ValidateResultStatus(skipped) expected error")
	}
}
