// Package canonical implements the deterministic byte encoding that backs
// hashing, manifest signing, and cursor signatures: recursive JSON key
// sorting, numeric canonicalization, SHA-256, and URL-safe unpadded base64.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
)

// Bytes serializes value to JSON, then recursively sorts object keys and
// normalizes numbers so the result is a deterministic function of value.
func Bytes(value interface{}) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}
	var decoded interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("canonical: decode for normalization: %w", err)
	}
	normalized := normalize(decoded)
	out, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal normalized: %w", err)
	}
	return out, nil
}

// orderedMap preserves the lexicographically sorted key order produced by
// normalize so json.Marshal emits keys in that order.
type orderedMap struct {
	keys   []string
	values map[string]interface{}
}

// MarshalJSON writes the object with keys in the order recorded by normalize.
func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make(map[string]interface{}, len(val))
		for _, k := range keys {
			values[k] = normalize(val[k])
		}
		return orderedMap{keys: keys, values: values}
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case json.Number:
		return normalizeNumber(val)
	default:
		return v
	}
}

// numberLiteral marshals verbatim so normalizeNumber's chosen text survives
// re-encoding (json.Marshal would otherwise re-format json.Number itself,
// which is already safe, but integers collapsed from floats need this).
type numberLiteral string

func (n numberLiteral) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// normalizeNumber collapses -0.0 and 0.0 to the integer token 0 and leaves
// every other numeral as originally written, since json.Number already
// preserves the source text verbatim.
func normalizeNumber(n json.Number) interface{} {
	if f, err := n.Float64(); err == nil && f == 0 {
		return numberLiteral("0")
	}
	return numberLiteral(n.String())
}

// SHA256 returns the 32-byte SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}

// StableJSONBytes is Bytes under the name used by callers that treat the
// canonical encoding as a signing input; it returns the same bytes and error.
func StableJSONBytes(value interface{}) ([]byte, error) {
	return Bytes(value)
}

// StableJSONHashHex returns the hex SHA-256 of the canonical encoding of value.
func StableJSONHashHex(value interface{}) (string, error) {
	b, err := Bytes(value)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}

var b64 = base64.RawURLEncoding.Strict()

// EncodeCursor returns the URL-safe, unpadded base64 of the canonical
// encoding of payload.
func EncodeCursor(payload interface{}) (string, error) {
	b, err := Bytes(payload)
	if err != nil {
		return "", err
	}
	return b64.EncodeToString(b), nil
}

// EncodeBase64 url-safe-unpadded-encodes raw bytes (used for the cursor
// payload/signature parts, which are not themselves canonical JSON).
func EncodeBase64(raw []byte) string {
	return b64.EncodeToString(raw)
}

// DecodeBase64 is the strict inverse of EncodeBase64.
func DecodeBase64(token string) ([]byte, error) {
	return b64.DecodeString(token)
}

// DecodeCursor base64-decodes token and JSON-decodes it into a generic value.
func DecodeCursor(token string) (interface{}, error) {
	raw, err := b64.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("canonical: decode cursor base64: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("canonical: decode cursor json: %w", err)
	}
	return out, nil
}
