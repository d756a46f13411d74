package ingest

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"

	"github.com/bijux/atlas/internal/atlaserr"
)

// normalizedFeatureLine is one row of the optional debug stream (spec
// §4.2.5): every gene, transcript, and exon the extractor produced, after
// normalization, in extraction order. It exists for operators diagnosing
// normalization drift between releases, not for any code path downstream of
// ingest.
type normalizedFeatureLine struct {
	Kind        string `json:"kind"` // "gene", "transcript", or "exon"
	GeneRow     *GeneRow       `json:"gene,omitempty"`
	Transcript  *TranscriptRow `json:"transcript,omitempty"`
	Exon        *ExonRow       `json:"exon,omitempty"`
}

// NormalizedFeaturesDebugStreamName is the file WriteNormalizedFeaturesDebugStream
// produces under derivedDir.
const NormalizedFeaturesDebugStreamName = "normalized_features.jsonl.zst"

// WriteNormalizedFeaturesDebugStream writes every normalized gene,
// transcript, and exon row as a zstd-compressed JSON-lines stream. Callers
// opt in via JobOptions; the stream is never read by the query or cache
// layers, only by ReadNormalizedFeaturesDebugStream in replay mode.
func WriteNormalizedFeaturesDebugStream(derivedDir string, extract *Extract) error {
	f, err := os.Create(filepath.Join(derivedDir, NormalizedFeaturesDebugStreamName))
	if err != nil {
		return atlaserr.NewIngestError("creating normalized features debug stream", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return atlaserr.NewIngestError("opening zstd writer for debug stream", err)
	}

	w := bufio.NewWriter(enc)
	encodeLine := func(line normalizedFeatureLine) error {
		b, err := json.Marshal(line)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}

	for i := range extract.Genes {
		if err := encodeLine(normalizedFeatureLine{Kind: "gene", GeneRow: &extract.Genes[i]}); err != nil {
			enc.Close()
			return atlaserr.NewIngestError("writing gene line to debug stream", err)
		}
	}
	for i := range extract.Transcripts {
		if err := encodeLine(normalizedFeatureLine{Kind: "transcript", Transcript: &extract.Transcripts[i]}); err != nil {
			enc.Close()
			return atlaserr.NewIngestError("writing transcript line to debug stream", err)
		}
	}
	for i := range extract.Exons {
		if err := encodeLine(normalizedFeatureLine{Kind: "exon", Exon: &extract.Exons[i]}); err != nil {
			enc.Close()
			return atlaserr.NewIngestError("writing exon line to debug stream", err)
		}
	}

	if err := w.Flush(); err != nil {
		enc.Close()
		return atlaserr.NewIngestError("flushing debug stream", err)
	}
	if err := enc.Close(); err != nil {
		return atlaserr.NewIngestError("closing zstd writer for debug stream", err)
	}
	return nil
}

// ReplayCounts is what ReadNormalizedFeaturesDebugStream reports back for
// normalized_replay_mode to assert against the Extract it was built from.
type ReplayCounts struct {
	Genes       int
	Transcripts int
	Exons       int
}

// ReadNormalizedFeaturesDebugStream decodes a stream written by
// WriteNormalizedFeaturesDebugStream and returns the row counts it found.
// normalized_replay_mode uses this to confirm the debug stream and the
// in-memory Extract it was written from agree on row counts.
func ReadNormalizedFeaturesDebugStream(path string) (ReplayCounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReplayCounts{}, atlaserr.NewIngestError("opening normalized features debug stream", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return ReplayCounts{}, atlaserr.NewIngestError("opening zstd reader for debug stream", err)
	}
	defer dec.Close()

	var counts ReplayCounts
	scanner := bufio.NewScanner(dec.IOReadCloser())
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		var line normalizedFeatureLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return ReplayCounts{}, atlaserr.NewIngestError("decoding debug stream line", err)
		}
		switch line.Kind {
		case "gene":
			counts.Genes++
		case "transcript":
			counts.Transcripts++
		case "exon":
			counts.Exons++
		default:
			return ReplayCounts{}, atlaserr.NewIngestError("unknown debug stream line kind "+line.Kind, nil)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return ReplayCounts{}, atlaserr.NewIngestError("scanning debug stream", err)
	}
	return counts, nil
}

// AssertReplayMatchesExtract implements normalized_replay_mode: it re-reads
// the debug stream just written and fails if its row counts disagree with
// the Extract that produced it.
func AssertReplayMatchesExtract(derivedDir string, extract *Extract) error {
	counts, err := ReadNormalizedFeaturesDebugStream(filepath.Join(derivedDir, NormalizedFeaturesDebugStreamName))
	if err != nil {
		return err
	}
	if counts.Genes != len(extract.Genes) || counts.Transcripts != len(extract.Transcripts) || counts.Exons != len(extract.Exons) {
		return atlaserr.NewIngestError("normalized replay mismatch: stream had "+
			strconv.Itoa(counts.Genes)+"/"+strconv.Itoa(counts.Transcripts)+"/"+strconv.Itoa(counts.Exons)+
			" gene/transcript/exon rows, extract had "+
			strconv.Itoa(len(extract.Genes))+"/"+strconv.Itoa(len(extract.Transcripts))+"/"+strconv.Itoa(len(extract.Exons)), nil)
	}
	return nil
}
