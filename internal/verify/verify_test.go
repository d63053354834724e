package verify

import (
	"context"
	"strings"
	"testing"

	"github.com/scholarlabs/scholar/internal/model"
	"github.com/scholarlabs/scholar/internal/table"
)

func newTestVerifier(maxDistance int) *Verifier {
	return &Verifier{MaxDistance: maxDistance, Workers: 2}
}

func TestVerify_ExactCitationUnchanged(t *testing.T) {
	v := newTestVerifier(30)

	output := `The paper claims "the sky is blue" in its abstract.`
	reference := "As everyone knows, the sky is blue on clear days."

	verified := v.Verify(output, reference)

	if verified != output {
		t.Errorf("Expected exact citations to leave the text unchanged:\n got %q\nwant %q", verified, output)
	}
}

func TestVerify_FuzzyCitationRewritten(t *testing.T) {
	v := newTestVerifier(30)

	output := `The author wrote "the treatment had a significant efect on patients".`
	reference := "In our study the treatment had a significant effect on patients overall."

	verified := v.Verify(output, reference)

	if !strings.Contains(verified, `"the treatment had a significant effect on patients"`) {
		t.Errorf("Expected the citation rewritten to the reference passage, got %q", verified)
	}
	if strings.Contains(verified, "efect") {
		t.Errorf("Expected the misquote to be replaced, got %q", verified)
	}
}

func TestVerify_NotFoundMarker(t *testing.T) {
	v := newTestVerifier(5)

	output := `It says "completely fabricated quotation" right there.`
	reference := "Nothing resembling that text appears in this document."

	verified := v.Verify(output, reference)

	want := `It says "` + model.NotFoundMarker + `" right there.`
	if verified != want {
		t.Errorf("Expected %q, got %q", want, verified)
	}
}

func TestVerify_MultipleCitationsInOrder(t *testing.T) {
	v := newTestVerifier(5)

	output := `First "alpha passage" then "missing entirely" and "beta passage".`
	reference := "Document containing the alpha passage and the beta passage."

	verified := v.Verify(output, reference)

	if !strings.Contains(verified, `"alpha passage"`) {
		t.Errorf("Expected the first citation kept, got %q", verified)
	}
	if !strings.Contains(verified, `"`+model.NotFoundMarker+`"`) {
		t.Errorf("Expected the middle citation flagged, got %q", verified)
	}
	if !strings.Contains(verified, `"beta passage"`) {
		t.Errorf("Expected the last citation kept, got %q", verified)
	}
}

func TestVerify_QuoteMarksPreserved(t *testing.T) {
	v := newTestVerifier(10)

	output := "Typographic “misquoted pasage” here."
	reference := "The misquoted passage appears in the source."

	verified := v.Verify(output, reference)

	if !strings.Contains(verified, "“misquoted passage”") {
		t.Errorf("Expected the inner text replaced inside the original quote marks, got %q", verified)
	}
}

func TestVerify_NoCitations(t *testing.T) {
	v := newTestVerifier(30)

	output := "No quoted material appears in this answer."

	if verified := v.Verify(output, "some reference"); verified != output {
		t.Errorf("Expected text without citations unchanged, got %q", verified)
	}
}

func TestVerify_Idempotent(t *testing.T) {
	v := newTestVerifier(30)

	output := `Claims "the treatmnt worked" and "made up stuff".`
	reference := "Overall the treatment worked for most participants."

	once := v.Verify(output, reference)
	twice := v.Verify(once, reference)

	if once != twice {
		t.Errorf("Expected verification to be idempotent:\n once %q\ntwice %q", once, twice)
	}
}

func TestVerifyTable_WritesVerifiedColumn(t *testing.T) {
	tbl, err := table.NewCSVTable(
		[]string{"source", "summary"},
		[][]string{
			{"The sky is blue on clear days.", `It notes "the sky is blue" here.`},
			{"Completely different content.", `It claims "no such passage exists".`},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	v := newTestVerifier(5)
	if err := v.VerifyTable(context.Background(), tbl, "summary", nil, []int{0, 1}); err != nil {
		t.Fatalf("VerifyTable failed: %v", err)
	}

	got, ok := tbl.Get(0, "summary_verified")
	if !ok {
		t.Fatal("Expected a summary_verified column")
	}
	// The source capitalizes the sentence, so the citation is rewritten to
	// the matched passage rather than kept verbatim
	if !strings.Contains(got, `"The sky is blue"`) {
		t.Errorf("Expected row 0 citation rewritten to the source casing, got %q", got)
	}

	got, _ = tbl.Get(1, "summary_verified")
	if !strings.Contains(got, model.NotFoundMarker) {
		t.Errorf("Expected row 1 citation flagged, got %q", got)
	}
}

func TestVerifyTable_EmptyOutputCell(t *testing.T) {
	tbl, err := table.NewCSVTable(
		[]string{"source", "summary", "summary_verified"},
		[][]string{
			{"Some source text.", "", "stale leftover"},
		},
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	v := newTestVerifier(30)
	if err := v.VerifyTable(context.Background(), tbl, "summary", nil, []int{0}); err != nil {
		t.Fatalf("VerifyTable failed: %v", err)
	}

	if got, _ := tbl.Get(0, "summary_verified"); got != "" {
		t.Errorf("Expected an empty verified cell for an empty output, got %q", got)
	}
}

func TestVerifyTable_UnknownOutputField(t *testing.T) {
	tbl, err := table.NewCSVTable([]string{"a"}, [][]string{{"x"}})
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	v := newTestVerifier(30)
	if err := v.VerifyTable(context.Background(), tbl, "missing", nil, []int{0}); err == nil {
		t.Error("Expected an error for an unknown output field")
	}
}

func TestVerifyTable_OutOfRangeRowSkipped(t *testing.T) {
	tbl, err := table.NewCSVTable(
		[]string{"source", "summary"},
		[][]string{{"the sky is blue", `Says "the sky is blue".`}},
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	v := newTestVerifier(30)
	if err := v.VerifyTable(context.Background(), tbl, "summary", nil, []int{0, 7}); err != nil {
		t.Fatalf("Expected out-of-range rows skipped, got error: %v", err)
	}

	if got, _ := tbl.Get(0, "summary_verified"); !strings.Contains(got, `"the sky is blue"`) {
		t.Errorf("Expected row 0 verified despite a bad row in the batch, got %q", got)
	}
}

func TestVerifyTable_ResolverExpandsReferences(t *testing.T) {
	tbl, err := table.NewCSVTable(
		[]string{"doc", "summary"},
		[][]string{{"doc://1", `Quotes "the hidden passage" verbatim.`}},
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	v := newTestVerifier(5)
	v.Resolver = func(ctx context.Context, value string) (string, error) {
		if value == "doc://1" {
			return "A document containing the hidden passage in full.", nil
		}
		return value, nil
	}

	if err := v.VerifyTable(context.Background(), tbl, "summary", nil, []int{0}); err != nil {
		t.Fatalf("VerifyTable failed: %v", err)
	}

	if got, _ := tbl.Get(0, "summary_verified"); !strings.Contains(got, `"the hidden passage"`) {
		t.Errorf("Expected the citation found in the resolved document, got %q", got)
	}
}

func TestVerifyTable_CancelledContext(t *testing.T) {
	tbl, err := table.NewCSVTable(
		[]string{"source", "summary"},
		[][]string{{"the sky is blue today", `Notes "the sky is blue".`}},
	)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newTestVerifier(5)
	v.Resolver = func(ctx context.Context, value string) (string, error) {
		t.Error("Expected no resolver calls after cancellation")
		return value, nil
	}

	if err := v.VerifyTable(ctx, tbl, "summary", nil, []int{0}); err != nil {
		t.Fatalf("VerifyTable failed: %v", err)
	}

	if got, _ := tbl.Get(0, "summary_verified"); got != "" {
		t.Errorf("Expected the row untouched after cancellation, got %q", got)
	}
}

func TestVerifyTable_ManyRowsConcurrently(t *testing.T) {
	headers := []string{"source", "summary"}
	var rows [][]string
	var idx []int
	for i := 0; i < 50; i++ {
		rows = append(rows, []string{"the sky is blue today", `Notes "the sky is blue".`})
		idx = append(idx, i)
	}
	tbl, err := table.NewCSVTable(headers, rows)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	v := newTestVerifier(5)
	v.Workers = 4
	if err := v.VerifyTable(context.Background(), tbl, "summary", nil, idx); err != nil {
		t.Fatalf("VerifyTable failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		if got, _ := tbl.Get(i, "summary_verified"); !strings.Contains(got, `"the sky is blue"`) {
			t.Fatalf("Row %d not verified: %q", i, got)
		}
	}
}
