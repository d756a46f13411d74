package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunWriteDebugStreamReplayMatchesExtract(t *testing.T) {
	dir := t.TempDir()
	inputs := writeTestInputs(t, dir)
	derivedDir := filepath.Join(dir, "derived")
	if err := os.MkdirAll(derivedDir, 0o755); err != nil {
		t.Fatalf("mkdir derived: %v", err)
	}

	opts := JobOptions{Policies: DefaultNormalizationPolicies(), Now: time.Unix(0, 0).UTC(), WriteDebugStream: true, ReplayMode: true}
	result, err := Run(inputs, opts, derivedDir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	streamPath := filepath.Join(derivedDir, NormalizedFeaturesDebugStreamName)
	if _, err := os.Stat(streamPath); err != nil {
		t.Fatalf("expected debug stream on disk: %v", err)
	}

	counts, err := ReadNormalizedFeaturesDebugStream(streamPath)
	if err != nil {
		t.Fatalf("ReadNormalizedFeaturesDebugStream: %v", err)
	}
	if counts.Genes != len(result.Extract.Genes) || counts.Transcripts != len(result.Extract.Transcripts) || counts.Exons != len(result.Extract.Exons) {
		t.Fatalf("replay counts %+v disagree with extract (%d/%d/%d)",
			counts, len(result.Extract.Genes), len(result.Extract.Transcripts), len(result.Extract.Exons))
	}
}

func TestAssertReplayMatchesExtractCatchesMismatch(t *testing.T) {
	dir := t.TempDir()
	inputs := writeTestInputs(t, dir)
	derivedDir := filepath.Join(dir, "derived")
	if err := os.MkdirAll(derivedDir, 0o755); err != nil {
		t.Fatalf("mkdir derived: %v", err)
	}

	result, err := Run(inputs, JobOptions{Policies: DefaultNormalizationPolicies(), Now: time.Unix(0, 0).UTC(), WriteDebugStream: true}, derivedDir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	tampered := *result.Extract
	tampered.Genes = append(tampered.Genes, tampered.Genes[0])
	if err := AssertReplayMatchesExtract(derivedDir, &tampered); err == nil {
		t.Fatal("expected a mismatch error after appending an extra gene row")
	}
}
