package query

import (
	"testing"

	"github.com/bijux/atlas/internal/atlasconfig"
	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/ids"
)

func strPtr(s string) *string { return &s }

func TestClassifyMatchesSpecRule(t *testing.T) {
	geneID := "ENSG001"
	prefix := "tp"
	biotype := "protein_coding"
	region, err := ids.NewRegion("1", 1, 1000)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}

	if got := Classify(GeneFilter{GeneID: &geneID}); got != Cheap {
		t.Fatalf("gene_id filter: got %s, want Cheap", got)
	}
	if got := Classify(GeneFilter{Region: &region}); got != Heavy {
		t.Fatalf("region filter: got %s, want Heavy", got)
	}
	if got := Classify(GeneFilter{NamePrefix: &prefix}); got != Heavy {
		t.Fatalf("prefix filter: got %s, want Heavy", got)
	}
	if got := Classify(GeneFilter{Biotype: &biotype}); got != Medium {
		t.Fatalf("biotype filter: got %s, want Medium", got)
	}
}

func TestValidateRequestRejectsOutOfRangeLimit(t *testing.T) {
	limits := atlasconfig.DefaultQueryLimits()
	geneID := "ENSG001"
	req := GeneQueryRequest{Filter: GeneFilter{GeneID: &geneID}, Limit: 0}
	_, _, err := ValidateRequest(req, limits)
	if err == nil {
		t.Fatal("expected validation error for limit=0")
	}
	execErr, ok := err.(*atlaserr.ExecError)
	if !ok || execErr.Kind != atlaserr.ExecValidation {
		t.Fatalf("expected ExecValidation error, got %v", err)
	}
}

func TestValidateRequestRequiresFilterOrFullScan(t *testing.T) {
	limits := atlasconfig.DefaultQueryLimits()
	req := GeneQueryRequest{Limit: 10}
	if _, _, err := ValidateRequest(req, limits); err == nil {
		t.Fatal("expected validation error for empty filter without allow_full_scan")
	}
	req.AllowFullScan = true
	if _, _, err := ValidateRequest(req, limits); err != nil {
		t.Fatalf("unexpected error with allow_full_scan: %v", err)
	}
}

func TestValidateRequestRejectsPrefixOutOfBounds(t *testing.T) {
	limits := atlasconfig.DefaultQueryLimits()
	short := "a"
	req := GeneQueryRequest{Filter: GeneFilter{NamePrefix: &short}, Limit: 10}
	if _, _, err := ValidateRequest(req, limits); err == nil {
		t.Fatal("expected validation error for a too-short prefix")
	}
}

func TestValidateRequestRejectsOversizedRegionSpan(t *testing.T) {
	limits := atlasconfig.DefaultQueryLimits()
	region, err := ids.NewRegion("1", 1, limits.MaxRegionSpan+2)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	req := GeneQueryRequest{Filter: GeneFilter{Region: &region}, Limit: 10}
	if _, _, err := ValidateRequest(req, limits); err == nil {
		t.Fatal("expected validation error for an oversized region span")
	}
}

func TestEscapeLikePrefixEscapesWildcards(t *testing.T) {
	got := EscapeLikePrefix("a%b_c!d")
	want := "a!%b!_c!!d"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeNameLowercasesAndNFKCs(t *testing.T) {
	if got := NormalizeName("TP53"); got != "tp53" {
		t.Fatalf("got %q, want tp53", got)
	}
}
