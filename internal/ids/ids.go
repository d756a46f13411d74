// Package ids implements the atlas value types: dataset, gene, transcript,
// and sequence identifiers plus genomic regions and strand. Constructors
// validate eagerly and never normalize silently — callers that already hold
// normalized components use the explicit FromNormalized constructors.
package ids

import (
	"fmt"
	"strings"
)

const (
	// IDMaxLen bounds GeneId and TranscriptId length.
	IDMaxLen = 64
	// SeqIDMaxLen bounds SeqId length.
	SeqIDMaxLen = 64
)

// InvalidIdentifier is the stable, typed validation error every value-type
// constructor in this package returns on failure.
type InvalidIdentifier struct {
	Kind   string
	Value  string
	Reason string
}

func (e *InvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

func invalid(kind, value, reason string) error {
	return &InvalidIdentifier{Kind: kind, Value: value, Reason: reason}
}

// DatasetId identifies a reference bundle by the triple release/species/assembly.
type DatasetId struct {
	release  string
	species  string
	assembly string
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLowerAlnumUnderscore(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' {
			return false
		}
	}
	return true
}

func isAssemblyChar(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// NewDatasetId validates each component and constructs a DatasetId. It never
// normalizes input; callers must already hold canonical components.
func NewDatasetId(release, species, assembly string) (DatasetId, error) {
	if !isDigits(release) {
		return DatasetId{}, invalid("dataset_id.release", release, "must be non-empty decimal digits")
	}
	if !isLowerAlnumUnderscore(species) {
		return DatasetId{}, invalid("dataset_id.species", species, "must be non-empty lowercase letters, digits, or underscore")
	}
	if !isAssemblyChar(assembly) {
		return DatasetId{}, invalid("dataset_id.assembly", assembly, "must be non-empty letters, digits, underscore, or hyphen")
	}
	return DatasetId{release: release, species: species, assembly: assembly}, nil
}

// FromNormalized constructs a DatasetId from components a caller already
// normalized upstream, skipping the character-class checks NewDatasetId
// performs. It still rejects empty components — there is no implicit
// normalization path into a DatasetId, only this explicit opt-in one.
func FromNormalized(release, species, assembly string) (DatasetId, error) {
	if release == "" {
		return DatasetId{}, invalid("dataset_id.release", release, "must not be empty")
	}
	if species == "" {
		return DatasetId{}, invalid("dataset_id.species", species, "must not be empty")
	}
	if assembly == "" {
		return DatasetId{}, invalid("dataset_id.assembly", assembly, "must not be empty")
	}
	return DatasetId{release: release, species: species, assembly: assembly}, nil
}

// Release returns the dataset's release component.
func (d DatasetId) Release() string { return d.release }

// Species returns the dataset's species component.
func (d DatasetId) Species() string { return d.species }

// Assembly returns the dataset's assembly component.
func (d DatasetId) Assembly() string { return d.assembly }

// String returns the canonical "release/species/assembly" representation.
func (d DatasetId) String() string {
	return fmt.Sprintf("%s/%s/%s", d.release, d.species, d.assembly)
}

// Equal reports whether two dataset ids have the same canonical string.
func (d DatasetId) Equal(other DatasetId) bool {
	return d.String() == other.String()
}

// Less orders dataset ids by canonical string, used to keep catalogs sorted.
func (d DatasetId) Less(other DatasetId) bool {
	return d.String() < other.String()
}

func validateASCIIID(kind, value string, maxLen int) error {
	if value == "" {
		return invalid(kind, value, "must not be empty")
	}
	if len(value) > maxLen {
		return invalid(kind, value, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	if strings.TrimSpace(value) != value {
		return invalid(kind, value, "must not have leading or trailing whitespace")
	}
	for i := 0; i < len(value); i++ {
		if value[i] > 0x7e || value[i] < 0x20 {
			return invalid(kind, value, "must be printable ASCII")
		}
	}
	return nil
}

// GeneId is a non-empty, bounded-length, whitespace-trimmed ASCII identifier.
type GeneId struct{ value string }

// NewGeneId validates and constructs a GeneId.
func NewGeneId(value string) (GeneId, error) {
	if err := validateASCIIID("gene_id", value, IDMaxLen); err != nil {
		return GeneId{}, err
	}
	return GeneId{value: value}, nil
}

// String returns the underlying identifier string.
func (g GeneId) String() string { return g.value }

// TranscriptId is a non-empty, bounded-length, whitespace-trimmed ASCII identifier.
type TranscriptId struct{ value string }

// NewTranscriptId validates and constructs a TranscriptId.
func NewTranscriptId(value string) (TranscriptId, error) {
	if err := validateASCIIID("transcript_id", value, IDMaxLen); err != nil {
		return TranscriptId{}, err
	}
	return TranscriptId{value: value}, nil
}

// String returns the underlying identifier string.
func (t TranscriptId) String() string { return t.value }

// SeqId is a non-empty, bounded-length, whitespace-trimmed ASCII contig/sequence identifier.
type SeqId struct{ value string }

// NewSeqId validates and constructs a SeqId.
func NewSeqId(value string) (SeqId, error) {
	if err := validateASCIIID("seqid", value, SeqIDMaxLen); err != nil {
		return SeqId{}, err
	}
	return SeqId{value: value}, nil
}

// String returns the underlying identifier string.
func (s SeqId) String() string { return s.value }

// Strand is the feature orientation: forward, reverse, or unknown.
type Strand string

const (
	StrandForward Strand = "+"
	StrandReverse Strand = "-"
	StrandUnknown Strand = "."
)

// ParseStrand validates a raw strand token.
func ParseStrand(value string) (Strand, error) {
	switch Strand(value) {
	case StrandForward, StrandReverse, StrandUnknown:
		return Strand(value), nil
	default:
		return "", invalid("strand", value, "must be one of +, -, .")
	}
}

// Region is a 1-based inclusive interval on a sequence.
type Region struct {
	Seqid string
	Start uint64
	End   uint64
}

// NewRegion validates start/end ordering and constructs a Region.
func NewRegion(seqid string, start, end uint64) (Region, error) {
	if seqid == "" {
		return Region{}, invalid("region.seqid", seqid, "must not be empty")
	}
	if start < 1 {
		return Region{}, invalid("region.start", fmt.Sprintf("%d", start), "must be >= 1")
	}
	if end < start {
		return Region{}, invalid("region.end", fmt.Sprintf("%d", end), "must be >= start")
	}
	return Region{Seqid: seqid, Start: start, End: end}, nil
}

// Less orders regions lexicographically on (seqid, start, end), matching
// the region query ordering used by the query executor.
func (r Region) Less(other Region) bool {
	if r.Seqid != other.Seqid {
		return r.Seqid < other.Seqid
	}
	if r.Start != other.Start {
		return r.Start < other.Start
	}
	return r.End < other.End
}

// DatasetSelector is the API-path dataset resolution strategy. There is no
// implicit "latest" selector: every selector in the core is Explicit.
type DatasetSelector struct {
	Dataset DatasetId
}

// Explicit constructs a DatasetSelector that always resolves to exactly the
// given dataset.
func Explicit(dataset DatasetId) DatasetSelector {
	return DatasetSelector{Dataset: dataset}
}

// Resolve returns the selected dataset. It never consults external state;
// any "latest" convenience alias must be resolved by the host before
// constructing a DatasetSelector.
func (s DatasetSelector) Resolve() DatasetId {
	return s.Dataset
}
