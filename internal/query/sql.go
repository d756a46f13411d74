package query

import "strings"

// plan is the synthesized SQL statement and its positional arguments,
// together with the order mode used to pick continuation predicates and
// ORDER BY (spec §4.5.3).
type plan struct {
	sql   string
	args  []interface{}
	order OrderMode
}

// orderForFilter implements spec §4.5.3's "Order mode = Region if region
// set, else GeneId".
func orderForFilter(f GeneFilter) OrderMode {
	if f.Region != nil {
		return OrderRegion
	}
	return OrderGeneID
}

func selectColumns(fields GeneFields) string {
	cols := []string{"g.gene_id"}
	if fields.Has(FieldName) {
		cols = append(cols, "g.name")
	} else {
		cols = append(cols, "NULL AS name")
	}
	// seqid/start are always fetched (not NULL'd out) regardless of
	// projection: region order and cursor continuation need the real
	// values. Whether the caller actually sees them is decided after
	// scanning, based on fields.Has(FieldCoords).
	cols = append(cols, "g.seqid", "g.start", "g.end")
	if fields.Has(FieldBiotype) {
		cols = append(cols, "g.biotype")
	} else {
		cols = append(cols, "NULL AS biotype")
	}
	if fields.Has(FieldTranscriptCount) {
		cols = append(cols, "g.transcript_count")
	} else {
		cols = append(cols, "NULL AS transcript_count")
	}
	if fields.Has(FieldSequenceLength) {
		cols = append(cols, "g.sequence_length")
	} else {
		cols = append(cols, "NULL AS sequence_length")
	}
	return strings.Join(cols, ", ")
}

// buildPlan synthesizes the parameterized SELECT for req, applying the
// continuation predicate from cursor when non-nil. It requests limit+1 rows
// per spec §4.5.4's pagination protocol.
func buildPlan(req GeneQueryRequest, cursor *CursorPayload) plan {
	order := orderForFilter(req.Filter)

	var from string
	if req.Filter.Region != nil {
		from = "gene_summary g JOIN gene_summary_rtree r ON g.id = r.gene_rowid"
	} else {
		from = "gene_summary g"
	}

	var where []string
	var args []interface{}

	if req.Filter.Region != nil {
		where = append(where, "g.seqid = ?", "r.start <= ?", "r.end >= ?")
		args = append(args, req.Filter.Region.Seqid, req.Filter.Region.End, req.Filter.Region.Start)
	}
	if req.Filter.GeneID != nil {
		where = append(where, "g.gene_id = ?")
		args = append(args, *req.Filter.GeneID)
	}
	if req.Filter.Name != nil {
		where = append(where, "g.name_normalized = ?")
		args = append(args, NormalizeName(*req.Filter.Name))
	}
	if req.Filter.NamePrefix != nil {
		where = append(where, "g.name_normalized LIKE ? ESCAPE '!'")
		args = append(args, EscapeLikePrefix(NormalizeName(*req.Filter.NamePrefix))+"%")
	}
	if req.Filter.Biotype != nil {
		where = append(where, "g.biotype = ?")
		args = append(args, *req.Filter.Biotype)
	}

	if cursor != nil {
		switch order {
		case OrderRegion:
			where = append(where, "(g.seqid > ? OR (g.seqid = ? AND (g.start > ? OR (g.start = ? AND g.gene_id > ?))))")
			args = append(args, cursor.LastSeqid, cursor.LastSeqid, cursor.LastStart, cursor.LastStart, cursor.LastGeneID)
		case OrderGeneID:
			where = append(where, "g.gene_id > ?")
			args = append(args, cursor.LastGeneID)
		}
	}

	var orderBy string
	switch order {
	case OrderRegion:
		orderBy = "g.seqid, g.start, g.gene_id"
	default:
		orderBy = "g.gene_id"
	}

	stmt := "SELECT " + selectColumns(req.Fields) + " FROM " + from
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY " + orderBy + " LIMIT ?"
	args = append(args, req.Limit+1)

	return plan{sql: stmt, args: args, order: order}
}
