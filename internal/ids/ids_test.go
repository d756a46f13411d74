package ids

import "testing"

func TestNewDatasetId(t *testing.T) {
	cases := []struct {
		name                         string
		release, species, assembly  string
		wantErr                     bool
	}{
		{"valid", "110", "homo_sapiens", "GRCh38", false},
		{"valid with dash assembly", "110", "mus_musculus", "GRCm39-patch1", false},
		{"empty release", "", "homo_sapiens", "GRCh38", true},
		{"non digit release", "110a", "homo_sapiens", "GRCh38", true},
		{"uppercase species", "110", "Homo_sapiens", "GRCh38", true},
		{"empty assembly", "110", "homo_sapiens", "", true},
		{"assembly with slash", "110", "homo_sapiens", "GRCh38/x", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := NewDatasetId(tc.release, tc.species, tc.assembly)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %+v", tc)
				}
				var invalidErr *InvalidIdentifier
				if !asInvalidIdentifier(err, &invalidErr) {
					t.Fatalf("expected *InvalidIdentifier, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := tc.release + "/" + tc.species + "/" + tc.assembly
			if got := id.String(); got != want {
				t.Fatalf("String() = %q, want %q", got, want)
			}
		})
	}
}

func asInvalidIdentifier(err error, target **InvalidIdentifier) bool {
	ii, ok := err.(*InvalidIdentifier)
	if ok {
		*target = ii
	}
	return ok
}

func TestDatasetIdNoImplicitNormalization(t *testing.T) {
	if _, err := NewDatasetId("110", "Homo_Sapiens", "GRCh38"); err == nil {
		t.Fatal("expected NewDatasetId to reject unnormalized species rather than normalize it")
	}
	id, err := FromNormalized("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("FromNormalized should accept already-normalized components: %v", err)
	}
	if id.String() != "110/homo_sapiens/GRCh38" {
		t.Fatalf("unexpected canonical string: %s", id.String())
	}
}

func TestGeneIdBoundaries(t *testing.T) {
	if _, err := NewGeneId(""); err == nil {
		t.Fatal("expected error for empty gene id")
	}
	ok := make([]byte, IDMaxLen)
	for i := range ok {
		ok[i] = 'a'
	}
	if _, err := NewGeneId(string(ok)); err != nil {
		t.Fatalf("expected id of exactly max length to be valid: %v", err)
	}
	tooLong := make([]byte, IDMaxLen+1)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	if _, err := NewGeneId(string(tooLong)); err == nil {
		t.Fatal("expected error for id exceeding max length")
	}
	if _, err := NewGeneId(" g1"); err == nil {
		t.Fatal("expected error for leading whitespace")
	}
	if _, err := NewGeneId("g1 "); err == nil {
		t.Fatal("expected error for trailing whitespace")
	}
}

func TestRegionOrderingAndValidation(t *testing.T) {
	if _, err := NewRegion("chr1", 0, 10); err == nil {
		t.Fatal("expected error for start=0")
	}
	if _, err := NewRegion("chr1", 10, 5); err == nil {
		t.Fatal("expected error for end<start")
	}
	a, err := NewRegion("chr1", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewRegion("chr1", 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Less(b) {
		t.Fatal("expected a < b by end coordinate")
	}
}

func TestExplicitDatasetSelectorHasNoImplicitLatest(t *testing.T) {
	id, err := NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel := Explicit(id)
	if !sel.Resolve().Equal(id) {
		t.Fatal("Explicit selector must resolve to exactly the given dataset")
	}
}
