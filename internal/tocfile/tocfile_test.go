package tocfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

func sampleEntries() []toc.Entry {
	return []toc.Entry{
		{ID: "e0001", GroupName: "chapters", Label: "Opening Statement", PageIndex: 0, Key: toc.Key{Rank: 0, Seq: 0}},
		{ID: "e0002", GroupName: "chapters", Label: "Verdict", PageIndex: 41, Key: toc.Key{Rank: 0, Seq: 1}},
		{ID: "e0003", GroupName: "exhibits", Label: "Exhibit A", PageIndex: 6, Key: toc.Key{Rank: 1, Seq: 0}},
	}
}

func TestTextCodec_EncodeFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := (TextCodec{}).Encode(&buf, sampleEntries(), EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := "chapters 0001\n" +
		"\tOpening Statement 0001\n" +
		"\tVerdict 0042\n" +
		"\n" +
		"exhibits 0007\n" +
		"\tExhibit A 0007\n"
	if buf.String() != want {
		t.Errorf("encoded form mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTextCodec_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (TextCodec{}).Encode(&buf, sampleEntries(), EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, diags, err := (TextCodec{}).Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	assertSameTuples(t, sampleEntries(), decoded)
}

func TestTextCodec_PageOffsetAppliesAtEncodeOnly(t *testing.T) {
	entries := []toc.Entry{
		{ID: "e0001", GroupName: "chapters", Label: "Intro", PageIndex: 0},
	}
	var buf bytes.Buffer
	if err := (TextCodec{}).Encode(&buf, entries, EncodeOptions{PageOffset: 10}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "Intro 0011") {
		t.Errorf("offset not applied: %q", buf.String())
	}
}

func TestTextCodec_NegativeOffsetClampsToPageOne(t *testing.T) {
	entries := []toc.Entry{
		{ID: "e0001", GroupName: "chapters", Label: "Intro", PageIndex: 2},
	}
	var buf bytes.Buffer
	if err := (TextCodec{}).Encode(&buf, entries, EncodeOptions{PageOffset: -10}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "Intro 0001") {
		t.Errorf("page not clamped to 1: %q", buf.String())
	}
}

func TestTextCodec_DecodeSkipsMalformedLines(t *testing.T) {
	input := "chapters 0001\n" +
		"\tGood Entry 0003\n" +
		"\tno page number here\n" +
		"\tAnother Good One 0005\n"
	entries, diags, err := (TextCodec{}).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	if diags[0].Line != 3 {
		t.Errorf("diagnostic line = %d, want 3", diags[0].Line)
	}
}

func TestTextCodec_DecodeEntryBeforeGroupIsDiagnostic(t *testing.T) {
	input := "\tOrphan 0003\n"
	entries, diags, err := (TextCodec{}).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
	if len(diags) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", diags)
	}
}

func TestTextCodec_LabelsMayContainDigits(t *testing.T) {
	input := "chapters 0001\n\tChapter 12 Summary 0034\n"
	entries, _, err := (TextCodec{}).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Label != "Chapter 12 Summary" {
		t.Errorf("label = %q, want %q", entries[0].Label, "Chapter 12 Summary")
	}
	if entries[0].PageIndex != 33 {
		t.Errorf("page index = %d, want 33", entries[0].PageIndex)
	}
}

func TestMarkdownCodec_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (MarkdownCodec{}).Encode(&buf, sampleEntries(), EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, diags, err := (MarkdownCodec{}).Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	assertSameTuples(t, sampleEntries(), decoded)
}

func TestMarkdownCodec_DecodeToleratesEmphasis(t *testing.T) {
	input := "## chapters\n\n- **Bold Title** (p. 3)\n"
	entries, diags, err := (MarkdownCodec{}).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Label != "Bold Title" {
		t.Errorf("label = %q, want %q", entries[0].Label, "Bold Title")
	}
	if entries[0].PageIndex != 2 {
		t.Errorf("page index = %d, want 2", entries[0].PageIndex)
	}
}

func TestMarkdownCodec_ItemWithoutPageSuffixIsDiagnostic(t *testing.T) {
	input := "## chapters\n\n- no page marker\n- Real One (p. 7)\n"
	entries, diags, err := (MarkdownCodec{}).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(diags) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", diags)
	}
}

func TestMarkdownCodec_DiagnosticsCarryLineNumbers(t *testing.T) {
	input := "## chapters\n\n- First (p. 1)\n- no page marker\n"
	_, diags, err := (MarkdownCodec{}).Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	if diags[0].Line != 4 {
		t.Errorf("line = %d, want 4", diags[0].Line)
	}
}

func TestForPath_SelectsCodecByExtension(t *testing.T) {
	if _, ok := ForPath("toc.md").(*MarkdownCodec); !ok {
		t.Errorf("expected MarkdownCodec for .md")
	}
	if _, ok := ForPath("toc.txt").(*TextCodec); !ok {
		t.Errorf("expected TextCodec for .txt")
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toc.txt")
	if err := WriteFile(path, sampleEntries(), EncodeOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, diags, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	assertSameTuples(t, sampleEntries(), entries)
}

func TestReadFile_Missing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !os.IsNotExist(underlying(err)) && !strings.Contains(err.Error(), "open toc file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func underlying(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}

// assertSameTuples compares (group, label, page) sequences, ignoring
// ids and keys, which a fresh decode regenerates.
func assertSameTuples(t *testing.T, want, got []toc.Entry) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("entry count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].GroupName != want[i].GroupName ||
			got[i].Label != want[i].Label ||
			got[i].PageIndex != want[i].PageIndex {
			t.Errorf("entry %d = (%s, %q, %d), want (%s, %q, %d)",
				i, got[i].GroupName, got[i].Label, got[i].PageIndex,
				want[i].GroupName, want[i].Label, want[i].PageIndex)
		}
	}
}
