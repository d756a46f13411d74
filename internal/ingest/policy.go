package ingest

import "strings"

// DuplicatePolicyMode governs how duplicate gene/transcript ids are handled
// during extraction.
type DuplicatePolicyMode string

const (
	DuplicateFail      DuplicatePolicyMode = "fail"
	DuplicateReject    DuplicatePolicyMode = "reject"
	DuplicateKeepFirst DuplicatePolicyMode = "keep_first"
)

// UnknownFeatureMode governs how feature rows of an unrecognized type are
// handled.
type UnknownFeatureMode string

const (
	UnknownFeatureIgnoreWithWarning UnknownFeatureMode = "ignore_with_warning"
	UnknownFeatureFail              UnknownFeatureMode = "fail"
)

// StrictnessMode governs whether warn-class anomalies abort the run or are
// merely recorded.
type StrictnessMode string

const (
	StrictnessStrict  StrictnessMode = "strict"
	StrictnessLenient StrictnessMode = "lenient"
)

// GeneIdentifierPolicy picks a gene id from the first matching attribute key.
type GeneIdentifierPolicy struct {
	AttributeKeys []string `yaml:"attribute_keys"`
}

// Resolve returns the first present, non-empty value among AttributeKeys.
func (p GeneIdentifierPolicy) Resolve(attrs map[string]string) (string, bool) {
	for _, k := range p.AttributeKeys {
		if v, ok := attrs[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// GeneNamePolicy resolves a display name, falling back to Default when none
// of AttributeKeys is present.
type GeneNamePolicy struct {
	AttributeKeys []string `yaml:"attribute_keys"`
	Default       string   `yaml:"default"`
}

// Resolve returns the trimmed display name.
func (p GeneNamePolicy) Resolve(attrs map[string]string) string {
	for _, k := range p.AttributeKeys {
		if v, ok := attrs[k]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v
			}
		}
	}
	return p.Default
}

// BiotypePolicy resolves the biotype attribute, mapping unknown/missing
// values to UnknownToken.
type BiotypePolicy struct {
	AttributeKey  string `yaml:"attribute_key"`
	UnknownToken  string `yaml:"unknown_token"`
}

// Resolve returns the biotype value or UnknownToken.
func (p BiotypePolicy) Resolve(attrs map[string]string) string {
	if v, ok := attrs[p.AttributeKey]; ok && v != "" {
		return v
	}
	return p.UnknownToken
}

// TranscriptTypePolicy lists the feature types accepted as transcripts; any
// other type is dropped during extraction.
type TranscriptTypePolicy struct {
	AcceptedTypes []string `yaml:"accepted_types"`
}

// Accepts reports whether featureType is a recognized transcript type.
func (p TranscriptTypePolicy) Accepts(featureType string) bool {
	for _, t := range p.AcceptedTypes {
		if t == featureType {
			return true
		}
	}
	return false
}

// SeqidNormalizationPolicy maps raw seqids to a canonical form.
type SeqidNormalizationPolicy struct {
	Alias                          map[string]string `yaml:"alias"`
	RejectNormalizedSeqidCollisions bool              `yaml:"reject_normalized_seqid_collisions"`
}

// Normalize returns the canonical seqid for raw.
func (p SeqidNormalizationPolicy) Normalize(raw string) string {
	if canon, ok := p.Alias[raw]; ok {
		return canon
	}
	return raw
}

// DuplicateGeneIdPolicy governs duplicate gene ids during extraction.
type DuplicateGeneIdPolicy struct {
	Mode DuplicatePolicyMode `yaml:"mode"`
}

// DuplicateTranscriptIdPolicy governs duplicate transcript ids during
// extraction.
type DuplicateTranscriptIdPolicy struct {
	Mode DuplicatePolicyMode `yaml:"mode"`
}

// FeatureIdUniquenessPolicy names whether ids must be unique only within
// their own feature class (gene vs transcript vs exon) or globally.
// Extraction does not read it: gene ids and transcript ids are each checked
// for duplicates within their own class only, and ids are never compared
// across classes.
type FeatureIdUniquenessPolicy struct {
	AcrossClasses bool `yaml:"across_classes"`
}

// UnknownFeaturePolicy governs rows whose feature type matches no known
// class.
type UnknownFeaturePolicy struct {
	Mode UnknownFeatureMode `yaml:"mode"`
}

// NormalizationPolicies bundles every policy the extraction stage consults.
type NormalizationPolicies struct {
	GeneIdentifier       GeneIdentifierPolicy
	GeneName             GeneNamePolicy
	Biotype              BiotypePolicy
	TranscriptType       TranscriptTypePolicy
	SeqidNormalization   SeqidNormalizationPolicy
	DuplicateGeneId      DuplicateGeneIdPolicy
	DuplicateTranscriptId DuplicateTranscriptIdPolicy
	FeatureIdUniqueness  FeatureIdUniquenessPolicy
	UnknownFeature       UnknownFeaturePolicy
	Strictness           StrictnessMode
}

// DefaultNormalizationPolicies matches common Ensembl-style GFF3 attribute
// conventions.
func DefaultNormalizationPolicies() NormalizationPolicies {
	return NormalizationPolicies{
		GeneIdentifier: GeneIdentifierPolicy{AttributeKeys: []string{"gene_id", "ID"}},
		GeneName:       GeneNamePolicy{AttributeKeys: []string{"Name", "gene_name"}, Default: "unknown"},
		Biotype:        BiotypePolicy{AttributeKey: "biotype", UnknownToken: "unknown"},
		TranscriptType: TranscriptTypePolicy{AcceptedTypes: []string{"mRNA", "transcript", "ncRNA", "lnc_RNA"}},
		SeqidNormalization: SeqidNormalizationPolicy{
			Alias:                           map[string]string{},
			RejectNormalizedSeqidCollisions: true,
		},
		DuplicateGeneId:       DuplicateGeneIdPolicy{Mode: DuplicateFail},
		DuplicateTranscriptId: DuplicateTranscriptIdPolicy{Mode: DuplicateFail},
		FeatureIdUniqueness:   FeatureIdUniquenessPolicy{AcrossClasses: false},
		UnknownFeature:        UnknownFeaturePolicy{Mode: UnknownFeatureIgnoreWithWarning},
		Strictness:            StrictnessLenient,
	}
}
