package query

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/atlasconfig"
)

// GeneRow is one projected result row. Fields not selected by the request's
// GeneFields are nil, matching the "present-but-unknown is null, absent
// field is omitted" response policy the surrounding server applies on top
// of this (spec §6.2).
type GeneRow struct {
	GeneID          string
	Name            *string
	Seqid           *string
	Start           *uint64
	End             *uint64
	Biotype         *string
	TranscriptCount *int64
	SequenceLength  *uint64
}

// Result is execute_gene_query's success value.
type Result struct {
	Rows       []GeneRow
	NextCursor *string
}

var approvedScanAnnotations = []string{
	"USING INDEX",
	"USING COVERING INDEX",
	"USING INTEGER PRIMARY KEY",
	"VIRTUAL TABLE INDEX",
	"RTREE",
}

// checkIndexOnlyPlan implements spec §4.5.3's index-only plan guard: reject
// the statement if any EXPLAIN QUERY PLAN line contains SCAN without one of
// the approved annotations.
func checkIndexOnlyPlan(ctx context.Context, db *sql.DB, stmt string, args []interface{}) error {
	rows, err := db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+stmt, args...)
	if err != nil {
		return atlaserr.NewExecError(atlaserr.ExecSql, "explaining query plan", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return atlaserr.NewExecError(atlaserr.ExecSql, "reading explain columns", err)
	}
	for rows.Next() {
		scan := make([]interface{}, len(cols))
		holders := make([]sql.NullString, len(cols))
		for i := range holders {
			scan[i] = &holders[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return atlaserr.NewExecError(atlaserr.ExecSql, "scanning explain row", err)
		}
		var detail string
		for _, h := range holders {
			detail += " " + h.String
		}
		if !strings.Contains(detail, "SCAN") {
			continue
		}
		approved := false
		for _, ann := range approvedScanAnnotations {
			if strings.Contains(detail, ann) {
				approved = true
				break
			}
		}
		if !approved {
			return atlaserr.NewExecError(atlaserr.ExecPolicy, "query plan contains an unindexed scan: "+strings.TrimSpace(detail), nil)
		}
	}
	return rows.Err()
}

// ExecuteGeneQuery is execute_gene_query (spec §4.5.5): validates, plans,
// enforces the index-only guard unless AllowFullScan was validated in,
// executes with a limit+1 read, truncates, and emits a continuation cursor.
func ExecuteGeneQuery(ctx context.Context, db *sql.DB, req GeneQueryRequest, limits atlasconfig.QueryLimits, secret []byte, datasetID string) (Result, error) {
	order := orderForFilter(req.Filter)

	qHash, err := QueryHash(req, order)
	if err != nil {
		return Result{}, atlaserr.NewExecError(atlaserr.ExecSql, "computing query hash", err)
	}

	var cursor *CursorPayload
	if req.Cursor != "" {
		cp, err := DecodeCursorToken(req.Cursor, secret, qHash, order)
		if err != nil {
			return Result{}, atlaserr.NewExecError(atlaserr.ExecCursor, err.Error(), err)
		}
		cursor = &cp
	}

	if _, _, err := ValidateRequest(req, limits); err != nil {
		return Result{}, err
	}

	p := buildPlan(req, cursor)

	if !req.AllowFullScan {
		if err := checkIndexOnlyPlan(ctx, db, p.sql, p.args); err != nil {
			return Result{}, err
		}
	}

	rows, err := db.QueryContext(ctx, p.sql, p.args...)
	if err != nil {
		return Result{}, atlaserr.NewExecError(atlaserr.ExecSql, "executing gene query", err)
	}
	defer rows.Close()

	// rawSeqid/rawStart back every kept row's cursor regardless of
	// projection; they are cleared from the returned row below when the
	// caller did not request coordinates.
	type rawRow struct {
		row      GeneRow
		rawSeqid string
		rawStart uint64
	}
	var kept []rawRow
	for rows.Next() {
		var (
			geneID          string
			name            sql.NullString
			seqid           string
			start, end      int64
			biotype         sql.NullString
			transcriptCount sql.NullInt64
			sequenceLength  sql.NullInt64
		)
		if err := rows.Scan(&geneID, &name, &seqid, &start, &end, &biotype, &transcriptCount, &sequenceLength); err != nil {
			return Result{}, atlaserr.NewExecError(atlaserr.ExecSql, "scanning gene row", err)
		}
		row := GeneRow{GeneID: geneID}
		if name.Valid {
			row.Name = &name.String
		}
		if req.Fields.Has(FieldCoords) {
			startV, endV := uint64(start), uint64(end)
			row.Seqid, row.Start, row.End = &seqid, &startV, &endV
		}
		if biotype.Valid {
			row.Biotype = &biotype.String
		}
		if transcriptCount.Valid {
			v := transcriptCount.Int64
			row.TranscriptCount = &v
		}
		if sequenceLength.Valid {
			v := uint64(sequenceLength.Int64)
			row.SequenceLength = &v
		}
		kept = append(kept, rawRow{row: row, rawSeqid: seqid, rawStart: uint64(start)})
	}
	if err := rows.Err(); err != nil {
		return Result{}, atlaserr.NewExecError(atlaserr.ExecSql, "iterating gene rows", err)
	}

	var nextCursor *string
	if len(kept) > req.Limit {
		kept = kept[:req.Limit]
		last := kept[req.Limit-1]

		depth := 1
		if cursor != nil {
			depth = cursor.Depth + 1
		}
		payload := CursorPayload{
			DatasetID:  datasetID,
			Order:      order,
			LastGeneID: last.row.GeneID,
			QueryHash:  qHash,
			Depth:      depth,
		}
		if order == OrderRegion {
			payload.LastSeqid = last.rawSeqid
			payload.LastStart = last.rawStart
		}
		token, err := EncodeCursorToken(payload, secret)
		if err != nil {
			return Result{}, atlaserr.NewExecError(atlaserr.ExecSql, "encoding next cursor", err)
		}
		nextCursor = &token
	}

	out := make([]GeneRow, len(kept))
	for i, k := range kept {
		out[i] = k.row
	}

	return Result{Rows: out, NextCursor: nextCursor}, nil
}
