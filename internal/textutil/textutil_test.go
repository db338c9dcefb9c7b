package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SAP S/4HANA Cloud, Public Edition", "sap s 4hana cloud public edition"},
		{"  Aurora   Platform  ", "aurora platform"},
		{"v2.0-beta", "v2 0 beta"},
		{"ALL CAPS", "all caps"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "uptime is 99.5%", "uptime is 99.5%"},
		{"tags removed", "<p>uptime is <b>99.5%</b></p>", "uptime is 99.5%"},
		{"script dropped", "<p>visible</p><script>alert(1)</script>", "visible"},
		{"style dropped", "<style>p{}</style><span>kept</span>", "kept"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentTokens_KeepsNegations(t *testing.T) {
	got := ContentTokens("the gateway does not support IPv6")
	want := []string{"gateway", "does", "not", "support", "ipv6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContentTokens = %v, want %v", got, want)
	}
}

func TestJaccard(t *testing.T) {
	if got := Jaccard("uptime SLA is 99.5 percent", "uptime SLA is 99.5 percent"); got != 1.0 {
		t.Errorf("identical passages: Jaccard = %v, want 1.0", got)
	}
	if got := Jaccard("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("disjoint passages: Jaccard = %v, want 0", got)
	}
	if got := Jaccard("", ""); got != 0 {
		t.Errorf("empty passages: Jaccard = %v, want 0", got)
	}
	got := Jaccard("uptime sla percent", "uptime sla ratio")
	if want := 2.0 / 4.0; got != want {
		t.Errorf("partial overlap: Jaccard = %v, want %v", got, want)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"Aurora Cloud Platform", 3},
		{"  spaced   out ", 2},
		{"", 0},
	}
	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
