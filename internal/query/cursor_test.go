package query

import (
	"testing"

	"github.com/bijux/atlas/internal/atlaserr"
)

func testSecret() []byte { return []byte("test-cursor-hmac-secret") }

func TestCursorRoundTrip(t *testing.T) {
	payload := CursorPayload{
		Order:      OrderGeneID,
		LastGeneID: "ENSG009",
		QueryHash:  "deadbeef",
		Depth:      3,
	}
	token, err := EncodeCursorToken(payload, testSecret())
	if err != nil {
		t.Fatalf("EncodeCursorToken: %v", err)
	}

	decoded, err := DecodeCursorToken(token, testSecret(), payload.QueryHash, payload.Order)
	if err != nil {
		t.Fatalf("DecodeCursorToken: %v", err)
	}
	if decoded.LastGeneID != payload.LastGeneID || decoded.Depth != payload.Depth {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, payload)
	}
}

func TestCursorRejectsQueryHashMismatch(t *testing.T) {
	payload := CursorPayload{Order: OrderGeneID, LastGeneID: "ENSG009", QueryHash: "aaaa", Depth: 1}
	token, err := EncodeCursorToken(payload, testSecret())
	if err != nil {
		t.Fatalf("EncodeCursorToken: %v", err)
	}
	_, err = DecodeCursorToken(token, testSecret(), "bbbb", OrderGeneID)
	ce, ok := err.(*atlaserr.CursorError)
	if !ok || ce.Code != atlaserr.CursorQueryHashMismatch {
		t.Fatalf("expected QueryHashMismatch, got %v", err)
	}
}

func TestCursorRejectsOrderMismatch(t *testing.T) {
	payload := CursorPayload{Order: OrderGeneID, LastGeneID: "ENSG009", QueryHash: "aaaa", Depth: 1}
	token, err := EncodeCursorToken(payload, testSecret())
	if err != nil {
		t.Fatalf("EncodeCursorToken: %v", err)
	}
	_, err = DecodeCursorToken(token, testSecret(), "aaaa", OrderRegion)
	ce, ok := err.(*atlaserr.CursorError)
	if !ok || ce.Code != atlaserr.CursorOrderMismatch {
		t.Fatalf("expected OrderMismatch, got %v", err)
	}
}

func TestCursorRejectsBitFlippedSignature(t *testing.T) {
	payload := CursorPayload{Order: OrderGeneID, LastGeneID: "ENSG009", QueryHash: "aaaa", Depth: 1}
	token, err := EncodeCursorToken(payload, testSecret())
	if err != nil {
		t.Fatalf("EncodeCursorToken: %v", err)
	}
	flipped := flipLastChar(token)
	_, err = DecodeCursorToken(flipped, testSecret(), "aaaa", OrderGeneID)
	ce, ok := err.(*atlaserr.CursorError)
	if !ok || (ce.Code != atlaserr.CursorInvalidSignature && ce.Code != atlaserr.CursorInvalidFormat) {
		t.Fatalf("expected InvalidSignature or InvalidFormat, got %v", err)
	}
}

func TestCursorAcceptsLegacyUnversionedForm(t *testing.T) {
	payload := CursorPayload{Order: OrderGeneID, LastGeneID: "ENSG009", QueryHash: "aaaa", Depth: 1}
	token, err := EncodeCursorToken(payload, testSecret())
	if err != nil {
		t.Fatalf("EncodeCursorToken: %v", err)
	}
	legacy := token[len("v1."):]
	decoded, err := DecodeCursorToken(legacy, testSecret(), "aaaa", OrderGeneID)
	if err != nil {
		t.Fatalf("expected legacy form to decode, got %v", err)
	}
	if decoded.LastGeneID != "ENSG009" {
		t.Fatalf("unexpected decode result: %+v", decoded)
	}
}

func flipLastChar(s string) string {
	b := []byte(s)
	last := b[len(b)-1]
	if last == 'a' {
		b[len(b)-1] = 'b'
	} else {
		b[len(b)-1] = 'a'
	}
	return string(b)
}
