//go:build unit

package domain

import "testing"

func TestSitePolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  SitePolicy
		wantErr bool
	}{
		{"host", SitePolicy{Host: "example.com"}, false},
		{"pattern", SitePolicy{Pattern: "*.example.com"}, false},
		{"both", SitePolicy{Host: "example.com", Pattern: "*.example.com"}, true},
		{"neither", SitePolicy{BasePath: "/x"}, true},
		{"bad scheme policy", SitePolicy{Host: "example.com", SchemePolicy: "sometimes"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSitePolicy_MatchesHost(t *testing.T) {
	tests := []struct {
		policy SitePolicy
		host   string
		want   bool
	}{
		{SitePolicy{Host: "example.com"}, "example.com", true},
		{SitePolicy{Host: "example.com"}, "EXAMPLE.com:8080", true},
		{SitePolicy{Host: "example.com:8080"}, "example.com:8080", true},
		{SitePolicy{Host: "example.com:8080"}, "example.com", false},
		{SitePolicy{Host: "example.com"}, "www.example.com", false},
		{SitePolicy{Pattern: "*.example.com"}, "www.example.com:443", true},
		{SitePolicy{Pattern: "*.EXAMPLE.com"}, "www.example.com", true},
		{SitePolicy{Pattern: "*.example.com"}, "example.com", false},
	}

	for _, tc := range tests {
		if got := tc.policy.MatchesHost(tc.host); got != tc.want {
			t.Errorf("%+v.MatchesHost(%q) = %v, want %v", tc.policy, tc.host, got, tc.want)
		}
	}
}

func TestMatchesHostPattern(t *testing.T) {
	tests := []struct {
		hostname, pattern string
		want              bool
	}{
		{"anything", "", true},
		{"anything", "*", true},
		{"staging.example.com", "*staging*", true},
		{"intranet.example.com", "intranet.*", true},
		{"www.example.com", "*.example.com", true},
		{"example.com", "example.com", true},
		{"example.org", "example.com", false},
		{"public.example.com", "intranet.*", false},
	}

	for _, tc := range tests {
		if got := MatchesHostPattern(tc.hostname, tc.pattern); got != tc.want {
			t.Errorf("MatchesHostPattern(%q, %q) = %v, want %v", tc.hostname, tc.pattern, got, tc.want)
		}
	}
}
