package audit

import "testing"

func TestParseRoute(t *testing.T) {
	testCases := []struct {
		method, pattern, role string
		want                  ActionResource
	}{
		{"POST", "/v1/onboarding/{role}/resolve", "client", ActionResource{"resolve", "onboarding.client"}},
		{"PUT", "/v1/onboarding/{role}", "freelancer", ActionResource{"save", "onboarding.freelancer"}},
		{"PUT", "/v1/onboarding/{role}", "", ActionResource{"save", "onboarding"}},
		{"GET", "/v1/onboarding/status", "", ActionResource{"status", "onboarding"}},
		{"GET", "/v1/profile", "", ActionResource{"get", "profile"}},
		{"GET", "/v1/profile/activity", "", ActionResource{"activity", "profile"}},
		{"DELETE", "/v1/profile", "", ActionResource{"delete", "profile"}},
		{"OPTIONS", "/healthz", "", ActionResource{"options", "healthz"}},
		{"GET", "/", "", ActionResource{"unknown", "unknown"}},
		{"GET", "/v1", "", ActionResource{"unknown", "unknown"}},
	}
	for _, tc := range testCases {
		got := ParseRoute(tc.method, tc.pattern, tc.role)
		if got != tc.want {
			t.Errorf("ParseRoute(%q, %q, %q) = %+v, want %+v", tc.method, tc.pattern, tc.role, got, tc.want)
		}
	}
}
