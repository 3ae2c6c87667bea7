package synthesis

import (
	"testing"
	"time"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"surrounded by prose", `Here is the plan: {"a":1} — enjoy`, `{"a":1}`, true},
		{"nested", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"hi\""}`, `{"a":"say \"hi\""}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"none", `no json here`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractObject(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractArray(t *testing.T) {
	got, ok := ExtractArray(`The tasks: [{"t":1},{"t":2}] done`)
	if !ok || got != `[{"t":1},{"t":2}]` {
		t.Errorf("unexpected result %q, %v", got, ok)
	}

	if _, ok := ExtractArray("nothing"); ok {
		t.Error("expected no array")
	}
}

func TestDecodeObject(t *testing.T) {
	var v struct {
		WeekTheme string `json:"weekTheme"`
	}
	if !DecodeObject(`prose {"weekTheme":"growth"} prose`, &v) {
		t.Fatal("expected decode to succeed")
	}
	if v.WeekTheme != "growth" {
		t.Errorf("unexpected value %q", v.WeekTheme)
	}

	if DecodeObject("not json", &v) {
		t.Error("expected decode to fail")
	}
}

func TestDecodeArrayFallbackToWholeString(t *testing.T) {
	// No balanced bracket span found by the scan won't happen for valid
	// arrays, but a response that IS the array with leading whitespace
	// exercises the whole-string fallback when the span parse fails.
	var v []map[string]any
	if !DecodeArray("  [{\"a\":1}]  ", &v) {
		t.Fatal("expected decode to succeed")
	}
	if len(v) != 1 {
		t.Errorf("expected 1 element, got %d", len(v))
	}
}

func TestDecodeArrayMalformed(t *testing.T) {
	var v []map[string]any
	if DecodeArray("[{not valid", &v) {
		t.Error("expected decode to fail")
	}
}

func TestNextBusinessDays(t *testing.T) {
	// 2026-01-02 is a Friday; the next 3 business days are Mon 5, Tue 6, Wed 7.
	friday := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	days := NextBusinessDays(friday, 3)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}

	want := []string{"2026-01-05", "2026-01-06", "2026-01-07"}
	for i, d := range days {
		if got := d.Format("2006-01-02"); got != want[i] {
			t.Errorf("day %d = %s, want %s", i, got, want[i])
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("business day fell on %s", wd)
		}
	}
}
