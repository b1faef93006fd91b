package salary

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantMin string
		wantMax string
		known   bool
	}{
		{name: "shorthand both bounds", raw: "15k-20k", wantMin: "15,000", wantMax: "20,000", known: true},
		{name: "asymmetric shorthand", raw: "15-20k", wantMin: "15,000", wantMax: "20,000", known: true},
		{name: "single grouped number", raw: "25,000", wantMin: "25,000", wantMax: "25,000", known: true},
		{name: "range with currency", raw: "18,000 - 22,000 บาท", wantMin: "18,000", wantMax: "22,000", known: true},
		{name: "uppercase K and decimals", raw: "17.5K - 20K", wantMin: "17,500", wantMax: "20,000", known: true},
		{name: "extra numbers ignored", raw: "20000-25000 (ต่อรองได้ 3 เดือน)", wantMin: "20,000", wantMax: "25,000", known: true},
		{name: "zero lower bound is not scaled", raw: "0-15000", wantMin: "0", wantMax: "15,000", known: true},
		{name: "undisclosed", raw: "ปิดข้อมูล", wantMin: "-", wantMax: "-"},
		{name: "undisclosed with text", raw: "เงินเดือน ปิดข้อมูล", wantMin: "-", wantMax: "-"},
		{name: "empty", raw: "", wantMin: "-", wantMax: "-"},
		{name: "no numbers", raw: "ตามโครงสร้างบริษัท", wantMin: "-", wantMax: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.raw)
			if got.Min != tt.wantMin || got.Max != tt.wantMax || got.Known != tt.known {
				t.Fatalf("Parse(%q) = %s/%s known=%v, want %s/%s known=%v",
					tt.raw, got.Min, got.Max, got.Known, tt.wantMin, tt.wantMax, tt.known)
			}
			if got.Raw != tt.raw {
				t.Fatalf("expected raw text to be kept, got %q", got.Raw)
			}
		})
	}
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	got := Parse("15-20k")
	if got.MinValue != 15000 || got.MaxValue != 20000 {
		t.Fatalf("unexpected values %v/%v", got.MinValue, got.MaxValue)
	}
}
