package query

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/bijux/atlas/internal/atlaserr"
	"github.com/bijux/atlas/internal/canonical"
)

const (
	maxCursorTokenLen = 1024
	maxCursorPayloadLen = 768
	maxCursorSigLen     = 128
	cursorVersion       = "v1"
)

// OrderMode is the row ordering a query was executed under; it must match
// between a cursor and the request continuing it (spec §4.5.4).
type OrderMode string

const (
	OrderRegion OrderMode = "region"
	OrderGeneID OrderMode = "gene_id"
)

// CursorPayload is the decoded content of a pagination cursor (spec
// §4.5.4). last_seqid/last_start are present only for OrderRegion.
type CursorPayload struct {
	CursorVersion string    `json:"cursor_version"`
	DatasetID     string    `json:"dataset_id,omitempty"`
	Order         OrderMode `json:"order"`
	LastGeneID    string    `json:"last_gene_id"`
	LastSeqid     string    `json:"last_seqid,omitempty"`
	LastStart     uint64    `json:"last_start,omitempty"`
	QueryHash     string    `json:"query_hash"`
	Depth         int       `json:"depth"`
}

// RequestProjection groups the parts of a request that query_hash covers:
// the request's filter shape, projected fields, and order, excluding cursor
// and limit (spec §4.5.4). QueryHash does not encode this type; it hashes a
// flattened struct of the same fields with explicit JSON names.
type RequestProjection struct {
	Filter GeneFilter
	Fields GeneFields
	Order  OrderMode
}

// QueryHash returns stable_json_hash_hex of the request projection.
func QueryHash(req GeneQueryRequest, order OrderMode) (string, error) {
	proj := struct {
		GeneID     *string    `json:"gene_id,omitempty"`
		Name       *string    `json:"name,omitempty"`
		NamePrefix *string    `json:"name_prefix,omitempty"`
		Biotype    *string    `json:"biotype,omitempty"`
		RegionSeq  string     `json:"region_seqid,omitempty"`
		RegionStart uint64    `json:"region_start,omitempty"`
		RegionEnd  uint64     `json:"region_end,omitempty"`
		Fields     GeneFields `json:"fields"`
		Order      OrderMode  `json:"order"`
	}{
		GeneID:     req.Filter.GeneID,
		Name:       req.Filter.Name,
		NamePrefix: req.Filter.NamePrefix,
		Biotype:    req.Filter.Biotype,
		Fields:     req.Fields,
		Order:      order,
	}
	if req.Filter.Region != nil {
		proj.RegionSeq = req.Filter.Region.Seqid
		proj.RegionStart = req.Filter.Region.Start
		proj.RegionEnd = req.Filter.Region.End
	}
	return canonical.StableJSONHashHex(proj)
}

// EncodeCursorToken signs payload with secret and returns the
// "v1.<payload>.<sig>" token (spec §6.3).
func EncodeCursorToken(payload CursorPayload, secret []byte) (string, error) {
	payload.CursorVersion = cursorVersion
	payloadBytes, err := canonical.Bytes(payload)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payloadBytes)
	sig := mac.Sum(nil)

	token := cursorVersion + "." + canonical.EncodeBase64(payloadBytes) + "." + canonical.EncodeBase64(sig)
	if len(token) > maxCursorTokenLen {
		return "", atlaserr.NewCursorError(atlaserr.CursorInvalidPayload, "encoded cursor exceeds max token length")
	}
	return token, nil
}

// DecodeCursorToken verifies and decodes token, checking length caps, HMAC
// signature, query_hash equality, and order equality, in that order (spec
// §4.5.4). Both the "v1.<payload>.<sig>" and legacy "<payload>.<sig>" forms
// are accepted.
func DecodeCursorToken(token string, secret []byte, expectedQueryHash string, expectedOrder OrderMode) (CursorPayload, error) {
	if len(token) > maxCursorTokenLen {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidFormat, "cursor token too long")
	}

	parts := strings.Split(token, ".")
	var payloadPart, sigPart string
	switch len(parts) {
	case 3:
		if parts[0] != cursorVersion {
			return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidFormat, "unrecognized cursor version")
		}
		payloadPart, sigPart = parts[1], parts[2]
	case 2:
		payloadPart, sigPart = parts[0], parts[1]
	default:
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidFormat, "malformed cursor token")
	}

	if len(payloadPart) > maxCursorPayloadLen || len(sigPart) > maxCursorSigLen {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidFormat, "cursor token part too long")
	}

	payloadBytes, err := canonical.DecodeBase64(payloadPart)
	if err != nil {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidFormat, "cursor payload is not valid base64")
	}
	sigBytes, err := canonical.DecodeBase64(sigPart)
	if err != nil {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidFormat, "cursor signature is not valid base64")
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payloadBytes)
	expectedSig := mac.Sum(nil)
	if !hmac.Equal(expectedSig, sigBytes) {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidSignature, "cursor signature mismatch")
	}

	var payload CursorPayload
	dec := json.NewDecoder(strings.NewReader(string(payloadBytes)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorInvalidPayload, "cursor payload is not valid json")
	}

	if payload.QueryHash != expectedQueryHash {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorQueryHashMismatch, "cursor was issued for a different query")
	}
	if payload.Order != expectedOrder {
		return CursorPayload{}, atlaserr.NewCursorError(atlaserr.CursorOrderMismatch, "cursor was issued under a different row order")
	}

	return payload, nil
}
