package service

import (
	"testing"

	"linkerai/backend/internal/profile/domain"
)

func TestValidateForm(t *testing.T) {
	testCases := []struct {
		name   string
		form   Form
		create bool
		want   []string // fields expected in details; empty means valid
	}{
		{"valid client create", validClientForm(), true, nil},
		{"valid freelancer create", validFreelancerForm(), true, nil},
		{"empty client create", &ClientForm{}, true, []string{"companyName", "companySize", "industry"}},
		{"empty client update", &ClientForm{}, false, nil},
		{"partial update checks submitted fields", &ClientForm{CompanySize: strPtr("huge")}, false, []string{"companySize"}},
		{"blank strings count as missing", &ClientForm{CompanyName: strPtr("   "), CompanySize: strPtr("1-10"), Industry: strPtr("Retail")}, true, []string{"companyName"}},
		{"bad website", &ClientForm{Website: strPtr("acme")}, false, []string{"website"}},
		{"hiring need too short", &ClientForm{HiringNeeds: []string{"design", "x"}}, false, []string{"hiringNeeds[1]"}},
		{"empty skills list", &FreelancerForm{Skills: []string{" ", ""}}, false, []string{"skills"}},
		{"rate out of range", &FreelancerForm{HourlyRate: floatPtr(20000)}, false, []string{"hourlyRate"}},
		{"bad availability", &FreelancerForm{Availability: strPtr("weekends")}, false, []string{"availability"}},
		{"nil form", nil, true, []string{"form"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			details := ValidateForm(tc.form, tc.create)
			if len(details) != len(tc.want) {
				t.Fatalf("details = %v, want fields %v", details, tc.want)
			}
			for _, field := range tc.want {
				if details[field] == "" {
					t.Errorf("missing detail for %q in %v", field, details)
				}
			}
		})
	}
}

func TestValidateForm_Messages(t *testing.T) {
	details := ValidateForm(&FreelancerForm{
		Title:           strPtr("Go"),
		ExperienceLevel: strPtr("guru"),
	}, false)
	if got := details["title"]; got != "must be at least 3 characters" {
		t.Errorf("title message = %q", got)
	}
	if got := details["experienceLevel"]; got != "must be one of: entry, intermediate, expert" {
		t.Errorf("experienceLevel message = %q", got)
	}
}

func TestValidateForm_TrimsValues(t *testing.T) {
	f := &ClientForm{CompanyName: strPtr("  Acme  "), HiringNeeds: []string{" design ", ""}}
	ValidateForm(f, false)
	if *f.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want trimmed", *f.CompanyName)
	}
	if len(f.HiringNeeds) != 1 || f.HiringNeeds[0] != "design" {
		t.Errorf("HiringNeeds = %v", f.HiringNeeds)
	}
	p := f.Patch()
	if p.CompanySize != nil || *p.CompanyName != "Acme" {
		t.Errorf("patch = %+v", p)
	}
}

func TestNewForm(t *testing.T) {
	for _, kind := range []domain.Role{domain.RoleClient, domain.RoleFreelancer} {
		f, ok := NewForm(kind)
		if !ok || f.Role() != kind {
			t.Errorf("NewForm(%q) = (%v, %v)", kind, f, ok)
		}
	}
	if _, ok := NewForm(domain.RoleAdmin); ok {
		t.Error("NewForm(admin) should have no form")
	}
}
