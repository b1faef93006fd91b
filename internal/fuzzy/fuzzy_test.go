package fuzzy

import "testing"

func TestPartialRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{name: "identical", a: "Cosmetic Science", b: "Cosmetic Science", min: 100, max: 100},
		{name: "case insensitive", a: "cosmetic", b: "COSMETIC", min: 100, max: 100},
		{name: "substring in boilerplate", a: "วไลยอลงกรณ์", b: "มหาวิทยาลัยราชภัฏวไลยอลงกรณ์ ในพระบรมราชูปถัมภ์", min: 100, max: 100},
		{name: "order independent", a: "มหาวิทยาลัยราชภัฏวไลยอลงกรณ์", b: "วไลยอลงกรณ์", min: 100, max: 100},
		{name: "one typo", a: "Cosmetic", b: "Faculty of Cosmetc Science", min: 85, max: 99},
		{name: "unrelated", a: "เครื่องสำอาง", b: "วิศวกรรมศาสตร์", min: 0, max: 60},
		{name: "empty", a: "", b: "anything", min: 0, max: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PartialRatio(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Fatalf("PartialRatio(%q, %q) = %d, want [%d, %d]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	m := New(0)
	if m.Threshold != DefaultThreshold {
		t.Fatalf("expected default threshold, got %d", m.Threshold)
	}

	targets := []string{"เครื่องสำอาง", "Cosmetic Science"}

	tests := []struct {
		name    string
		text    string
		targets []string
		want    bool
	}{
		{name: "no targets is vacuously true", text: "anything", targets: nil, want: true},
		{name: "no targets with empty text", text: "", targets: []string{}, want: true},
		{name: "empty text never matches", text: "", targets: targets, want: false},
		{name: "blank text never matches", text: "   ", targets: targets, want: false},
		{name: "identical", text: "Cosmetic Science", targets: []string{"Cosmetic Science"}, want: true},
		{name: "embedded target", text: "วิทยาศาสตร์เครื่องสำอาง", targets: targets, want: true},
		{name: "faculty without target", text: "คณะวิทยาศาสตร์", targets: targets, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := m.Matches(tt.text, tt.targets); got != tt.want {
				t.Fatalf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatchesThreshold(t *testing.T) {
	t.Parallel()

	strict := New(100)
	if strict.Matches("Faculty of Cosmetc Science", []string{"Cosmetic"}) {
		t.Fatalf("expected strict matcher to reject a typo")
	}
	if !New(80).Matches("Faculty of Cosmetc Science", []string{"Cosmetic"}) {
		t.Fatalf("expected lenient matcher to accept a typo")
	}
}

func TestBest(t *testing.T) {
	t.Parallel()

	target, score := Best("บริษัท ลอรีอัล (ประเทศไทย) จำกัด", []string{"Unilever", "ลอรีอัล", "ลอรีอัล (ประเทศไทย)"})
	if target != "ลอรีอัล" || score != 100 {
		t.Fatalf("unexpected best match %q (%d)", target, score)
	}

	target, score = Best("", []string{"x"})
	if target != "" || score != 0 {
		t.Fatalf("expected no match for empty text, got %q (%d)", target, score)
	}
}
