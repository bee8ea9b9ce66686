package headerfmt

import (
	"strings"
	"testing"

	"github.com/holocm/rpmcore/header"
)

func mustAdd(t *testing.T, h *header.Header, tag header.Tag, typ header.Type, data interface{}, count uint32) {
	t.Helper()
	if err := h.Add(tag, typ, data, count); err != nil {
		t.Fatalf("Add(%v): %s", tag, err)
	}
}

func TestEvalScalarString(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagName, header.StringType, "holo", 1)

	got, err := Eval("%{NAME}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "holo" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalPad(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagName, header.StringType, "ab", 1)

	got, err := Eval("%6{NAME}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "    ab" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalArrayIteration(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagRequireName, header.StringArrayType, []string{"a", "b", "c"}, 3)

	got, err := Eval("[%{REQUIRENAME} ]", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "a b c " {
		t.Fatalf("got %q", got)
	}
}

func TestEvalSelectCount(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagRequireName, header.StringArrayType, []string{"a", "b", "c"}, 3)

	got, err := Eval("%#{REQUIRENAME}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "3" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalSelectFirst(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagRequireName, header.StringArrayType, []string{"a", "b", "c"}, 3)

	got, err := Eval("%={REQUIRENAME}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "a" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalConditional(t *testing.T) {
	present := header.New()
	mustAdd(t, present, header.TagSummary, header.StringType, "hi", 1)

	got, err := Eval("%|SUMMARY?{yes}:{no}|", present)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "yes" {
		t.Fatalf("got %q", got)
	}

	absent := header.New()
	got, err = Eval("%|SUMMARY?{yes}:{no}|", absent)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "no" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalConditionalNoElse(t *testing.T) {
	absent := header.New()
	got, err := Eval("%|SUMMARY?{yes}|", absent)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalFormatters(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagFileModes, header.Int16Type, []int16{0755}, 1)
	mustAdd(t, h, header.TagBuildTime, header.Int32Type, []int32{1000000000}, 1)

	got, err := Eval("[%{FILEMODES:octal}]", h)
	if err != nil {
		t.Fatalf("Eval octal: %s", err)
	}
	if got != "755" {
		t.Fatalf("octal got %q", got)
	}

	got, err = Eval("%{BUILDTIME:date}", h)
	if err != nil {
		t.Fatalf("Eval date: %s", err)
	}
	if !strings.Contains(got, "2001") {
		t.Fatalf("date got %q", got)
	}
}

func TestEvalShescape(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagName, header.StringType, "it's-a-package", 1)

	got, err := Eval("%{NAME:shescape}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	want := `'it'\''s-a-package'`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEvalUnknownTag(t *testing.T) {
	h := header.New()
	_, err := Eval("%{BOGUS}", h)
	if err == nil {
		t.Fatalf("expected FormatError")
	}
}

func TestEvalUnterminatedBrace(t *testing.T) {
	h := header.New()
	_, err := Eval("%{NAME", h)
	if err == nil {
		t.Fatalf("expected FormatError")
	}
}

func TestEvalMismatchedArrayLengths(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagRequireName, header.StringArrayType, []string{"a", "b"}, 2)
	mustAdd(t, h, header.TagConflictName, header.StringArrayType, []string{"x", "y", "z"}, 3)

	_, err := Eval("[%{REQUIRENAME} %{CONFLICTNAME}]", h)
	if err == nil {
		t.Fatalf("expected FormatError for mismatched array lengths")
	}
}

func TestEvalPseudoTagPlain(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagName, header.StringType, "holo", 1)
	mustAdd(t, h, header.TagSummary, header.StringType, "a package", 1)

	got, err := Eval("%{*}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if !strings.Contains(got, "NAME: holo\n") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "SUMMARY: a package\n") {
		t.Fatalf("got %q", got)
	}
}

func TestEvalXMLDump(t *testing.T) {
	h := header.New()
	mustAdd(t, h, header.TagName, header.StringType, "holo", 1)

	got, err := Eval("%{*:xml}", h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if !strings.HasPrefix(got, "<rpmHeader>\n") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, `<rpmTag name="NAME">`) {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "holo") {
		t.Fatalf("got %q", got)
	}
}

func TestParseReusable(t *testing.T) {
	f, err := Parse("%{NAME}-%{VERSION}")
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	h := header.New()
	mustAdd(t, h, header.TagName, header.StringType, "holo", 1)
	mustAdd(t, h, header.TagVersion, header.StringType, "1.0", 1)

	got, err := f.Eval(h)
	if err != nil {
		t.Fatalf("Eval: %s", err)
	}
	if got != "holo-1.0" {
		t.Fatalf("got %q", got)
	}
}
