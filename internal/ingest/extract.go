package ingest

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/model"
)

// GeneRow is one normalized gene record prior to relational persistence.
type GeneRow struct {
	GeneID          string
	Name            string
	NameNormalized  string
	Biotype         string
	Seqid           string
	Start           uint64
	End             uint64
	Strand          Strand
	TranscriptCount int
	ExonCount       int
	TotalExonSpan   uint64
	CDSPresent      bool
	SequenceLength  uint64
}

// TranscriptRow is one normalized transcript record.
type TranscriptRow struct {
	TranscriptID    string
	ParentGeneID    string
	TranscriptType  string
	Biotype         string
	Seqid           string
	Start           uint64
	End             uint64
	ExonCount       int
	TotalExonSpan   uint64
	CDSPresent      bool
}

// ExonRow is one normalized exon record.
type ExonRow struct {
	ParentTranscriptID string
	Seqid              string
	Start              uint64
	End                uint64
}

// Extract holds the ordered output of the normalization/extraction stage:
// three sorted row sequences, distribution summaries, and the anomaly
// report describing every recoverable issue found along the way.
type Extract struct {
	Genes              []GeneRow
	Transcripts        []TranscriptRow
	Exons              []ExonRow
	ContigDistribution map[string]int
	BiotypeDistribution map[string]int
	Anomalies          *model.IngestAnomalyReport
}

// Extractor applies NormalizationPolicies over a stream of GFF3 features.
type Extractor struct {
	policies NormalizationPolicies

	genesByID       map[string]GeneRow
	transcriptsByID map[string]TranscriptRow
	geneOrder       []string
	transcriptOrder []string
	exons           []ExonRow

	transcriptParent map[string]string // transcript id -> parent gene id (raw, pre-validation)
	exonParent       []struct {
		transcriptID string
		exon         ExonRow
	}

	anomalies *model.IngestAnomalyReport
}

// NewExtractor constructs an Extractor applying the given policies.
func NewExtractor(policies NormalizationPolicies) *Extractor {
	return &Extractor{
		policies:         policies,
		genesByID:        make(map[string]GeneRow),
		transcriptsByID:  make(map[string]TranscriptRow),
		transcriptParent: make(map[string]string),
		anomalies:        model.NewIngestAnomalyReport(),
	}
}

// Feed consumes one parsed GFF3 feature, classifying it as a gene,
// transcript, or exon row. A row of any other type is skipped without being
// recorded, or fails the run when the unknown-feature policy is Fail.
func (e *Extractor) Feed(f *Feature) error {
	seqid := e.policies.SeqidNormalization.Normalize(f.Seqid)

	switch {
	case f.Type == "gene":
		return e.feedGene(f, seqid)
	case e.policies.TranscriptType.Accepts(f.Type):
		return e.feedTranscript(f, seqid)
	case f.Type == "exon":
		return e.feedExon(f, seqid)
	default:
		if e.policies.UnknownFeature.Mode == UnknownFeatureFail {
			return atlaserr.NewIngestError("unknown feature type "+f.Type, nil)
		}
		return nil
	}
}

func (e *Extractor) feedGene(f *Feature, seqid string) error {
	geneID, ok := e.policies.GeneIdentifier.Resolve(f.Attributes)
	if !ok {
		if e.policies.Strictness == StrictnessStrict {
			return atlaserr.NewIngestError("gene row missing identifier attribute", nil)
		}
		return nil
	}

	if _, exists := e.genesByID[geneID]; exists {
		e.anomalies.DuplicateGeneIDs = append(e.anomalies.DuplicateGeneIDs, geneID)
		switch e.policies.DuplicateGeneId.Mode {
		case DuplicateFail:
			return atlaserr.NewIngestError("duplicate gene id "+geneID, nil)
		case DuplicateKeepFirst:
			return nil
		case DuplicateReject:
			delete(e.genesByID, geneID)
			return nil
		}
	}

	row := GeneRow{
		GeneID:         geneID,
		Name:           e.policies.GeneName.Resolve(f.Attributes),
		Biotype:        e.policies.Biotype.Resolve(f.Attributes),
		Seqid:          seqid,
		Start:          f.Start,
		End:            f.End,
		Strand:         f.Strand,
	}
	row.NameNormalized = normalizeGeneName(row.Name)

	if _, exists := e.genesByID[geneID]; !exists {
		e.geneOrder = append(e.geneOrder, geneID)
	}
	e.genesByID[geneID] = row
	return nil
}

func (e *Extractor) feedTranscript(f *Feature, seqid string) error {
	transcriptID, ok := f.Attributes["ID"]
	if !ok {
		if e.policies.Strictness == StrictnessStrict {
			return atlaserr.NewIngestError("transcript row missing ID attribute", nil)
		}
		return nil
	}
	parentGeneID := f.Attributes["Parent"]

	if _, exists := e.transcriptsByID[transcriptID]; exists {
		switch e.policies.DuplicateTranscriptId.Mode {
		case DuplicateFail:
			return atlaserr.NewIngestError("duplicate transcript id "+transcriptID, nil)
		case DuplicateKeepFirst:
			return nil
		case DuplicateReject:
			delete(e.transcriptsByID, transcriptID)
			return nil
		}
	}

	row := TranscriptRow{
		TranscriptID:   transcriptID,
		ParentGeneID:   parentGeneID,
		TranscriptType: f.Type,
		Biotype:        e.policies.Biotype.Resolve(f.Attributes),
		Seqid:          seqid,
		Start:          f.Start,
		End:            f.End,
	}

	if _, exists := e.transcriptsByID[transcriptID]; !exists {
		e.transcriptOrder = append(e.transcriptOrder, transcriptID)
	}
	e.transcriptsByID[transcriptID] = row
	e.transcriptParent[transcriptID] = parentGeneID
	return nil
}

func (e *Extractor) feedExon(f *Feature, seqid string) error {
	parentTranscriptID := f.Attributes["Parent"]
	exon := ExonRow{ParentTranscriptID: parentTranscriptID, Seqid: seqid, Start: f.Start, End: f.End}
	e.exonParent = append(e.exonParent, struct {
		transcriptID string
		exon         ExonRow
	}{transcriptID: parentTranscriptID, exon: exon})
	return nil
}

// Finish resolves parent linkage (transcript -> gene, exon -> transcript),
// aggregates per-gene/per-transcript exon statistics, sorts every row
// sequence by (seqid, start, end, id), and returns the completed Extract.
func (e *Extractor) Finish() *Extract {
	contigDist := make(map[string]int)
	biotypeDist := make(map[string]int)

	for transcriptID, parentGeneID := range e.transcriptParent {
		if parentGeneID == "" {
			continue
		}
		if _, ok := e.genesByID[parentGeneID]; !ok {
			e.anomalies.MissingParents = append(e.anomalies.MissingParents, transcriptID)
		}
	}

	exonsByTranscript := make(map[string][]ExonRow)
	for _, ep := range e.exonParent {
		if ep.transcriptID == "" {
			continue
		}
		if _, ok := e.transcriptsByID[ep.transcriptID]; !ok {
			e.anomalies.MissingParents = append(e.anomalies.MissingParents, ep.transcriptID)
			continue
		}
		exonsByTranscript[ep.transcriptID] = append(exonsByTranscript[ep.transcriptID], ep.exon)
		e.exons = append(e.exons, ep.exon)
	}

	transcriptsByGene := make(map[string][]string)
	for _, tid := range e.transcriptOrder {
		t := e.transcriptsByID[tid]
		exons := exonsByTranscript[tid]
		t.ExonCount = len(exons)
		for _, ex := range exons {
			t.TotalExonSpan += spanOf(ex.Start, ex.End)
		}
		e.transcriptsByID[tid] = t
		if t.ParentGeneID != "" {
			transcriptsByGene[t.ParentGeneID] = append(transcriptsByGene[t.ParentGeneID], tid)
		}
	}

	genes := make([]GeneRow, 0, len(e.geneOrder))
	for _, gid := range e.geneOrder {
		g := e.genesByID[gid]
		transcriptIDs := transcriptsByGene[gid]
		g.TranscriptCount = len(transcriptIDs)
		for _, tid := range transcriptIDs {
			t := e.transcriptsByID[tid]
			g.ExonCount += t.ExonCount
			g.TotalExonSpan += t.TotalExonSpan
		}
		genes = append(genes, g)
		contigDist[g.Seqid]++
		biotypeDist[g.Biotype]++
	}

	transcripts := make([]TranscriptRow, 0, len(e.transcriptOrder))
	for _, tid := range e.transcriptOrder {
		transcripts = append(transcripts, e.transcriptsByID[tid])
	}

	sort.Slice(genes, func(i, j int) bool { return lessGeneRow(genes[i], genes[j]) })
	sort.Slice(transcripts, func(i, j int) bool { return lessTranscriptRow(transcripts[i], transcripts[j]) })
	sort.Slice(e.exons, func(i, j int) bool { return lessExonRow(e.exons[i], e.exons[j]) })

	e.anomalies.Finalize()

	return &Extract{
		Genes:               genes,
		Transcripts:         transcripts,
		Exons:               e.exons,
		ContigDistribution:  contigDist,
		BiotypeDistribution: biotypeDist,
		Anomalies:           e.anomalies,
	}
}

func spanOf(start, end uint64) uint64 {
	if end < start {
		return 0
	}
	return end - start + 1
}

func lessGeneRow(a, b GeneRow) bool {
	if a.Seqid != b.Seqid {
		return a.Seqid < b.Seqid
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.GeneID < b.GeneID
}

func lessTranscriptRow(a, b TranscriptRow) bool {
	if a.Seqid != b.Seqid {
		return a.Seqid < b.Seqid
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.TranscriptID < b.TranscriptID
}

func lessExonRow(a, b ExonRow) bool {
	if a.Seqid != b.Seqid {
		return a.Seqid < b.Seqid
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.ParentTranscriptID < b.ParentTranscriptID
}

// normalizeGeneName implements `name_normalized = lowercase(NFKC(name))`
// (spec §3.3). internal/query applies the identical transform to incoming
// name filters so column and predicate are comparable byte-for-byte.
func normalizeGeneName(name string) string {
	return strings.ToLower(norm.NFKC.String(name))
}
