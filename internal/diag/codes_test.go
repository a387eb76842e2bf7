package diag

import "testing"

func TestCodeNamesRoundTrip(t *testing.T) {
	for code, info := range codeTable {
		if code == UnknownCode {
			continue
		}
		got, ok := ParseCode(info.name)
		if !ok || got != code {
			t.Fatalf("ParseCode(%q) = %v, %v; want %v", info.name, got, ok, code)
		}
		if got, ok := ParseCode(code.ID()); !ok || got != code {
			t.Fatalf("ParseCode(%q) = %v, %v", code.ID(), got, ok)
		}
	}
}

func TestParseCodeIsCaseInsensitive(t *testing.T) {
	if c, ok := ParseCode("  invalidlvalue "); !ok || c != SemaInvalidLValue {
		t.Fatalf("got %v, %v", c, ok)
	}
	if _, ok := ParseCode("NoSuchThing"); ok {
		t.Fatalf("unknown name should not parse")
	}
	if _, ok := ParseCode("unknown"); ok {
		t.Fatalf("UnknownCode must not be addressable by name")
	}
}

func TestCodeFormatting(t *testing.T) {
	if SemaUndeclaredIdent.ID() != "SEM3002" {
		t.Fatalf("ID = %s", SemaUndeclaredIdent.ID())
	}
	if ScrExpectMismatch.ID() != "SCR4002" {
		t.Fatalf("ID = %s", ScrExpectMismatch.ID())
	}
	if Code(9999).Name() != "Unknown" || Code(9999).ID() != "E0000" {
		t.Fatalf("unexpected fallback for unknown code")
	}
	if SemaInvalidLValue.String() != "[SEM3013]: Invalid assignment target" {
		t.Fatalf("String = %s", SemaInvalidLValue.String())
	}
}

func TestSeverityOrderAndNames(t *testing.T) {
	if !(SevInfo < SevWarning && SevWarning < SevError) {
		t.Fatal("severities must order info < warning < error")
	}
	for sev, want := range map[Severity]string{
		SevInfo:     "INFO",
		SevWarning:  "WARNING",
		SevError:    "ERROR",
		Severity(9): "UNKNOWN",
	} {
		if got := sev.String(); got != want {
			t.Fatalf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}
