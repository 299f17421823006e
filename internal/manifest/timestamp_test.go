package manifest

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAt(t *testing.T) {
	t.Run("normalizes to UTC", func(t *testing.T) {
		t.Parallel()
		loc := time.FixedZone("UTC+2", 2*60*60)
		ts := At(time.Date(2024, 1, 15, 12, 30, 0, 0, loc))
		if got, want := ts.String(), "2024-01-15T10:30:00Z"; got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("drops sub-second precision", func(t *testing.T) {
		t.Parallel()
		ts := At(time.Date(2024, 1, 15, 10, 30, 0, 999_999_999, time.UTC))
		if got, want := ts.String(), "2024-01-15T10:30:00Z"; got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("values a second apart are ordered", func(t *testing.T) {
		t.Parallel()
		a := At(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
		b := At(time.Date(2024, 1, 15, 10, 30, 1, 0, time.UTC))
		if !b.After(a) {
			t.Error("b.After(a) = false, want true")
		}
		if !a.Before(b) {
			t.Error("a.Before(b) = false, want true")
		}
		if a.Equal(b) {
			t.Error("a.Equal(b) = true, want false")
		}
	})

	t.Run("sub-second difference collapses to equal", func(t *testing.T) {
		t.Parallel()
		a := At(time.Date(2024, 1, 15, 10, 30, 0, 100, time.UTC))
		b := At(time.Date(2024, 1, 15, 10, 30, 0, 900, time.UTC))
		if !a.Equal(b) {
			t.Error("a.Equal(b) = false, want true")
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("round-trips through String", func(t *testing.T) {
		t.Parallel()
		orig := At(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
		parsed, err := Parse(orig.String())
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !parsed.Equal(orig) {
			t.Errorf("Parse(%q) = %v, want %v", orig.String(), parsed, orig)
		}
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{
			"2024-01-15 10:30:00",
			"2024-01-15T10:30:00+00:00",
			"2024-01-15T10:30:00.123Z",
			"not a time",
		} {
			if _, err := Parse(s); err == nil {
				t.Errorf("Parse(%q) expected error", s)
			}
		}
	})
}

func TestTimestamp_JSON(t *testing.T) {
	t.Run("marshals as quoted manifest form", func(t *testing.T) {
		t.Parallel()
		ts := At(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
		data, err := json.Marshal(ts)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if got, want := string(data), `"2024-01-15T10:30:00Z"`; got != want {
			t.Errorf("Marshal() = %s, want %s", got, want)
		}
	})

	t.Run("unmarshals back to the same instant", func(t *testing.T) {
		t.Parallel()
		orig := At(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
		data, _ := json.Marshal(orig)

		var got Timestamp
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !got.Equal(orig) {
			t.Errorf("Unmarshal() = %v, want %v", got, orig)
		}
	})

	t.Run("rejects non-string JSON", func(t *testing.T) {
		t.Parallel()
		var ts Timestamp
		if err := json.Unmarshal([]byte(`12345`), &ts); err == nil {
			t.Error("Unmarshal(12345) expected error")
		}
	})
}
