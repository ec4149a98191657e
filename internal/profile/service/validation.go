package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"linkerai/backend/internal/profile/domain"
)

// Form is a role-specific onboarding submission. Nil fields were not submitted.
type Form interface {
	// Role is the role profile kind the form writes.
	Role() domain.Role
	normalize()
	required() []string
}

// NewForm returns an empty form for kind, or false if kind has no onboarding form.
func NewForm(kind domain.Role) (Form, bool) {
	switch kind {
	case domain.RoleClient:
		return &ClientForm{}, true
	case domain.RoleFreelancer:
		return &FreelancerForm{}, true
	}
	return nil, false
}

// ClientForm is the client onboarding submission.
type ClientForm struct {
	CompanyName *string  `json:"companyName" validate:"omitempty,min=2,max=120"`
	CompanySize *string  `json:"companySize" validate:"omitempty,oneof=1-10 11-50 51-200 201-1000 1000+"`
	Industry    *string  `json:"industry" validate:"omitempty,min=2,max=80"`
	Website     *string  `json:"website" validate:"omitempty,url,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	HiringNeeds []string `json:"hiringNeeds" validate:"omitempty,max=20,dive,min=2,max=80"`
}

// Role implements Form.
func (f *ClientForm) Role() domain.Role { return domain.RoleClient }

func (f *ClientForm) normalize() {
	f.CompanyName = trimPtr(f.CompanyName)
	f.CompanySize = trimPtr(f.CompanySize)
	f.Industry = trimPtr(f.Industry)
	f.Website = trimPtr(f.Website)
	f.Description = trimPtr(f.Description)
	f.HiringNeeds = trimList(f.HiringNeeds)
}

func (f *ClientForm) required() []string {
	var out []string
	if f.CompanyName == nil {
		out = append(out, "companyName")
	}
	if f.CompanySize == nil {
		out = append(out, "companySize")
	}
	if f.Industry == nil {
		out = append(out, "industry")
	}
	return out
}

// Patch returns the form as a store patch.
func (f *ClientForm) Patch() *domain.ClientPatch {
	return &domain.ClientPatch{
		CompanyName: f.CompanyName,
		CompanySize: f.CompanySize,
		Industry:    f.Industry,
		Website:     f.Website,
		Description: f.Description,
		HiringNeeds: f.HiringNeeds,
	}
}

// FreelancerForm is the freelancer onboarding submission.
type FreelancerForm struct {
	Title           *string  `json:"title" validate:"omitempty,min=3,max=120"`
	Bio             *string  `json:"bio" validate:"omitempty,min=20,max=5000"`
	Skills          []string `json:"skills" validate:"omitempty,min=1,max=30,dive,min=1,max=50"`
	HourlyRate      *float64 `json:"hourlyRate" validate:"omitempty,gt=0,lte=10000"`
	ExperienceLevel *string  `json:"experienceLevel" validate:"omitempty,oneof=entry intermediate expert"`
	Availability    *string  `json:"availability" validate:"omitempty,oneof=full-time part-time hourly not-available"`
	PortfolioURL    *string  `json:"portfolioUrl" validate:"omitempty,url,max=255"`
}

// Role implements Form.
func (f *FreelancerForm) Role() domain.Role { return domain.RoleFreelancer }

func (f *FreelancerForm) normalize() {
	f.Title = trimPtr(f.Title)
	f.Bio = trimPtr(f.Bio)
	f.Skills = trimList(f.Skills)
	f.ExperienceLevel = trimPtr(f.ExperienceLevel)
	f.Availability = trimPtr(f.Availability)
	f.PortfolioURL = trimPtr(f.PortfolioURL)
}

func (f *FreelancerForm) required() []string {
	var out []string
	if f.Title == nil {
		out = append(out, "title")
	}
	if f.Bio == nil {
		out = append(out, "bio")
	}
	if f.Skills == nil {
		out = append(out, "skills")
	}
	if f.HourlyRate == nil {
		out = append(out, "hourlyRate")
	}
	if f.ExperienceLevel == nil {
		out = append(out, "experienceLevel")
	}
	if f.Availability == nil {
		out = append(out, "availability")
	}
	return out
}

// Patch returns the form as a store patch.
func (f *FreelancerForm) Patch() *domain.FreelancerPatch {
	return &domain.FreelancerPatch{
		Title:           f.Title,
		Bio:             f.Bio,
		Skills:          f.Skills,
		HourlyRate:      f.HourlyRate,
		ExperienceLevel: f.ExperienceLevel,
		Availability:    f.Availability,
		PortfolioURL:    f.PortfolioURL,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateForm normalizes form and checks it. On create every required field must be present;
// otherwise only submitted fields are checked. It returns a map of JSON field name to message,
// empty when the form is valid.
func ValidateForm(form Form, create bool) map[string]string {
	details := make(map[string]string)
	if form == nil {
		details["form"] = "is required"
		return details
	}
	form.normalize()
	if create {
		for _, field := range form.required() {
			details[field] = "is required"
		}
	}
	err := formValidator().Struct(form)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fieldPath(fe)
			if _, seen := details[field]; seen {
				continue
			}
			details[field] = fieldMessage(fe)
		}
	} else if err != nil {
		details["form"] = err.Error()
	}
	return details
}

// fieldPath drops the struct name from the namespace: "ClientForm.hiringNeeds[0]" -> "hiringNeeds[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	unit := "characters"
	if fe.Kind() == reflect.Slice {
		unit = "items"
	}
	switch fe.Tag() {
	case "min":
		if fe.Kind() == reflect.Float64 {
			return "must be at least " + fe.Param()
		}
		return fmt.Sprintf("must be at least %s %s", fe.Param(), unit)
	case "max":
		return fmt.Sprintf("must be at most %s %s", fe.Param(), unit)
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// trimPtr trims s and treats blank strings as not submitted.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// trimList trims entries and drops blank ones. A submitted list stays non-nil even when it ends up empty.
func trimList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
