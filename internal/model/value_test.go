package model

import "testing"

func TestValueCanonical(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"scalar with unit", ScalarValue(99.5, "%"), "99.5%"},
		{"scalar trims trailing zeros", ScalarValue(200, "ms"), "200ms"},
		{"interval", IntervalValue(1, 4), "1..4"},
		{"inequality", InequalityValue(">=", 99.5), ">=99.5"},
		{"set is order-insensitive", SetValue("b", "a", "c"), "{a,b,c}"},
		{"boolean", BoolValue(true), "true"},
		{"version", VersionValue("2.0"), "2.0"},
		{"text collapses whitespace and case", TextValue("  Region   EU-West "), "region eu-west"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Canonical(); got != tt.want {
				t.Errorf("Canonical() = %q, want %q", got, tt.want)
			}
		})
	}

	// Same set, different member order: identical rendering.
	if SetValue("x", "y").Canonical() != SetValue("y", "x").Canonical() {
		t.Error("set canonical rendering depends on member order")
	}
}

func TestValueNumeric(t *testing.T) {
	if v, ok := ScalarValue(99.5, "%").Numeric(); !ok || v != 99.5 {
		t.Errorf("scalar Numeric() = (%v, %v)", v, ok)
	}
	if v, ok := IntervalValue(1, 3).Numeric(); !ok || v != 2 {
		t.Errorf("interval Numeric() = (%v, %v), want midpoint 2", v, ok)
	}
	if v, ok := InequalityValue(">=", 10).Numeric(); !ok || v != 10 {
		t.Errorf("inequality Numeric() = (%v, %v)", v, ok)
	}
	if _, ok := TextValue("ten").Numeric(); ok {
		t.Error("text value reported a numeric reading")
	}
	if _, ok := VersionValue("2.0").Numeric(); ok {
		t.Error("version value reported a numeric reading")
	}
}

func TestScopeKey(t *testing.T) {
	if got := ScopeKey(nil); got != "default" {
		t.Errorf("ScopeKey(nil) = %q, want %q", got, "default")
	}

	a := ScopeKey(map[string]string{"edition": "Enterprise", "region": "EU"})
	if a != "edition=enterprise|region=eu" {
		t.Errorf("ScopeKey = %q", a)
	}
	b := ScopeKey(map[string]string{"region": " eu ", "edition": "enterprise"})
	if a != b {
		t.Errorf("equivalent qualifiers produced %q and %q", a, b)
	}
}

func TestDocumentValidate(t *testing.T) {
	valid := func() *Document {
		return &Document{
			ID:       "doc-a",
			TenantID: "acme",
			Claims: []ClaimInput{{
				Subject:    "Aurora Cloud Platform",
				Kind:       "SLA",
				Value:      BoolValue(true),
				Confidence: 0.9,
			}},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing tenant", func(d *Document) { d.TenantID = "" }},
		{"missing id", func(d *Document) { d.ID = "" }},
		{"no claims", func(d *Document) { d.Claims = nil }},
		{"blank subject", func(d *Document) { d.Claims[0].Subject = "   " }},
		{"missing kind", func(d *Document) { d.Claims[0].Kind = "" }},
		{"confidence out of range", func(d *Document) { d.Claims[0].Confidence = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(doc)
			if doc.Validate() == nil {
				t.Error("invalid document accepted")
			}
		})
	}
}
