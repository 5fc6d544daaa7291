package dandinotes

import "testing"

func TestNormalizeDandisetID(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"000001", "000001"},
		{"27", "000027"},
		{"dandiset_000496", "000496"},
	}
	for _, c := range cases {
		got, err := NormalizeDandisetID(c.input)
		if err != nil {
			t.Fatalf("NormalizeDandisetID(%q) failed: %v", c.input, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeDandisetID(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestNormalizeDandisetIDRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "abc", "1234567", "00001x", "../etc"} {
		if _, err := NormalizeDandisetID(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestDandisetDirName(t *testing.T) {
	got, err := DandisetDirName("1")
	if err != nil {
		t.Fatalf("DandisetDirName failed: %v", err)
	}
	if got != "dandiset_000001" {
		t.Fatalf("got %q", got)
	}
}

func TestDisplayID(t *testing.T) {
	if got := DisplayID("dandiset_000496"); got != "DANDI:000496" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayID("not-an-id"); got != "not-an-id" {
		t.Fatalf("invalid ids pass through, got %q", got)
	}
}

func TestValidators(t *testing.T) {
	if !IsEmail("user@example.org") || IsEmail("nope") || IsEmail("a@b") {
		t.Fatalf("email validation mismatch")
	}
	if !IsURL("https://example.org/path") || IsURL("ftp://example.org") || IsURL("example.org") {
		t.Fatalf("url validation mismatch")
	}
	if !IsORCID("https://orcid.org/0000-0002-1825-009X") || IsORCID("0000-0002-1825-0097") {
		t.Fatalf("orcid validation mismatch")
	}
}
