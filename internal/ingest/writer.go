package ingest

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bijux/atlas/internal/atlaserr"
)

const dbSchemaVersion = "1"

// schemaDDL creates every table, the r-tree, and the indexes required by
// spec §3.3. Indexes are created last (WriteRelationalArtifact enforces the
// ordering) to amortize B-tree maintenance cost over the bulk insert.
const schemaDDL = `
CREATE TABLE gene_summary (
	id INTEGER PRIMARY KEY,
	gene_id TEXT NOT NULL,
	name TEXT NOT NULL,
	name_normalized TEXT NOT NULL,
	biotype TEXT NOT NULL,
	seqid TEXT NOT NULL,
	start INTEGER NOT NULL,
	end INTEGER NOT NULL,
	transcript_count INTEGER NOT NULL,
	exon_count INTEGER NOT NULL,
	total_exon_span INTEGER NOT NULL,
	cds_present INTEGER NOT NULL,
	sequence_length INTEGER NOT NULL
);

CREATE TABLE transcript_summary (
	id INTEGER PRIMARY KEY,
	transcript_id TEXT NOT NULL,
	parent_gene_id TEXT NOT NULL,
	transcript_type TEXT NOT NULL,
	biotype TEXT NOT NULL,
	seqid TEXT NOT NULL,
	start INTEGER NOT NULL,
	end INTEGER NOT NULL,
	exon_count INTEGER NOT NULL,
	total_exon_span INTEGER NOT NULL,
	cds_present INTEGER NOT NULL
);

CREATE TABLE dataset_stats (
	dimension TEXT NOT NULL,
	value TEXT NOT NULL,
	gene_count INTEGER NOT NULL,
	PRIMARY KEY (dimension, value)
);

CREATE TABLE atlas_meta (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL
);

CREATE VIRTUAL TABLE gene_summary_rtree USING rtree(
	gene_rowid,
	start,
	end
);
`

const indexDDL = `
CREATE INDEX idx_gene_summary_gene_id ON gene_summary(gene_id);
CREATE INDEX idx_gene_summary_name ON gene_summary(name);
CREATE INDEX idx_gene_summary_name_normalized ON gene_summary(name_normalized);
CREATE INDEX idx_gene_summary_biotype ON gene_summary(biotype);
CREATE INDEX idx_gene_summary_region ON gene_summary(seqid, start, end);
CREATE INDEX idx_gene_summary_cover_lookup ON gene_summary(gene_id, name_normalized, biotype);
CREATE INDEX idx_gene_summary_cover_region ON gene_summary(seqid, start, end, gene_id);

CREATE INDEX idx_transcript_summary_transcript_id ON transcript_summary(transcript_id);
CREATE INDEX idx_transcript_summary_parent_gene_id ON transcript_summary(parent_gene_id);
CREATE INDEX idx_transcript_summary_biotype ON transcript_summary(biotype);
CREATE INDEX idx_transcript_summary_type ON transcript_summary(transcript_type);
CREATE INDEX idx_transcript_summary_region ON transcript_summary(seqid, start, end);
`

// WriteRelationalArtifact builds a fresh gene_summary.sqlite at path from
// extract, following the five-step sequence of spec §4.2.4: schema, bulk
// insert + r-tree in one transaction, dataset_stats aggregation, indexes
// last, then VACUUM.
func WriteRelationalArtifact(path string, extract *Extract) error {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return atlaserr.NewIngestError("opening sqlite artifact", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaDDL); err != nil {
		return atlaserr.NewIngestError("creating schema", err)
	}
	if _, err := db.Exec(`INSERT INTO atlas_meta(k, v) VALUES ('schema_version', ?)`, dbSchemaVersion); err != nil {
		return atlaserr.NewIngestError("writing atlas_meta", err)
	}

	if err := bulkInsert(db, extract); err != nil {
		return err
	}

	if err := materializeDatasetStats(db, extract); err != nil {
		return err
	}

	if _, err := db.Exec(indexDDL); err != nil {
		return atlaserr.NewIngestError("creating indexes", err)
	}

	if _, err := db.Exec("VACUUM"); err != nil {
		return atlaserr.NewIngestError("vacuuming artifact", err)
	}

	if len(extract.Genes) == 0 {
		return atlaserr.NewIngestError("refusing to publish an artifact with zero genes", nil)
	}
	return nil
}

func bulkInsert(db *sql.DB, extract *Extract) error {
	tx, err := db.Begin()
	if err != nil {
		return atlaserr.NewIngestError("beginning write transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	geneStmt, err := tx.Prepare(`INSERT INTO gene_summary
		(id, gene_id, name, name_normalized, biotype, seqid, start, end,
		 transcript_count, exon_count, total_exon_span, cds_present, sequence_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return atlaserr.NewIngestError("preparing gene insert", err)
	}
	defer geneStmt.Close()

	rtreeStmt, err := tx.Prepare(`INSERT INTO gene_summary_rtree(gene_rowid, start, end) VALUES (?, ?, ?)`)
	if err != nil {
		return atlaserr.NewIngestError("preparing rtree insert", err)
	}
	defer rtreeStmt.Close()

	for i, g := range extract.Genes {
		rowid := int64(i + 1)
		if _, err := geneStmt.Exec(rowid, g.GeneID, g.Name, g.NameNormalized, g.Biotype, g.Seqid,
			g.Start, g.End, g.TranscriptCount, g.ExonCount, g.TotalExonSpan, boolToInt(g.CDSPresent), g.SequenceLength); err != nil {
			return atlaserr.NewIngestError(fmt.Sprintf("inserting gene %s", g.GeneID), err)
		}
		if _, err := rtreeStmt.Exec(rowid, g.Start, g.End); err != nil {
			return atlaserr.NewIngestError(fmt.Sprintf("inserting rtree row for gene %s", g.GeneID), err)
		}
	}

	transcriptStmt, err := tx.Prepare(`INSERT INTO transcript_summary
		(id, transcript_id, parent_gene_id, transcript_type, biotype, seqid, start, end,
		 exon_count, total_exon_span, cds_present)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return atlaserr.NewIngestError("preparing transcript insert", err)
	}
	defer transcriptStmt.Close()

	for i, t := range extract.Transcripts {
		if _, err := transcriptStmt.Exec(int64(i+1), t.TranscriptID, t.ParentGeneID, t.TranscriptType, t.Biotype,
			t.Seqid, t.Start, t.End, t.ExonCount, t.TotalExonSpan, boolToInt(t.CDSPresent)); err != nil {
			return atlaserr.NewIngestError(fmt.Sprintf("inserting transcript %s", t.TranscriptID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return atlaserr.NewIngestError("committing write transaction", err)
	}
	committed = true
	return nil
}

func materializeDatasetStats(db *sql.DB, extract *Extract) error {
	tx, err := db.Begin()
	if err != nil {
		return atlaserr.NewIngestError("beginning stats transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO dataset_stats(dimension, value, gene_count) VALUES (?, ?, ?)`)
	if err != nil {
		return atlaserr.NewIngestError("preparing dataset_stats insert", err)
	}
	defer stmt.Close()

	for biotype, count := range extract.BiotypeDistribution {
		if _, err := stmt.Exec("biotype", biotype, count); err != nil {
			return atlaserr.NewIngestError("inserting biotype stats", err)
		}
	}
	for seqid, count := range extract.ContigDistribution {
		if _, err := stmt.Exec("seqid", seqid, count); err != nil {
			return atlaserr.NewIngestError("inserting seqid stats", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return atlaserr.NewIngestError("committing stats transaction", err)
	}
	committed = true
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
