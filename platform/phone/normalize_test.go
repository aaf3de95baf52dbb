package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in     string
		region string
		want   string
	}{
		{"", "", ""},
		{"  ", "NL", ""},
		{"+31 6 12345678", "NL", "+31612345678"},
		{"06-12345678", "NL", "+31612345678"},
		{"06-12345678", "", "+31612345678"},
		{"+31 6 12345678", "US", "+31612345678"},
		{"(201) 555-0123", "us", "+12015550123"},
		{"(201) 555-0123", "NL", "2015550123"},
		{"not a number", "NL", "notanumber"},
		{"12 34", "NL", "1234"},
	}

	for _, tc := range cases {
		if got := NormalizeE164(tc.in, tc.region); got != tc.want {
			t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}

func TestRegionFallsBackToDefault(t *testing.T) {
	if got := Region(" de "); got != "DE" {
		t.Errorf("Region(de) = %q", got)
	}
	if got := Region("XX"); got != DefaultRegion {
		t.Errorf("Region(XX) = %q, want %q", got, DefaultRegion)
	}
}
