package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed entry identity. The version suffix
// leaves room for an algorithm migration.
const entryDomain = "statevet/audit-entry/v1"

// MarshalCanonical encodes an entry as canonical JSON: fixed field set,
// keys in code-unit order, strings NFC-normalized, no HTML escaping. Two
// entries with the same field values always produce identical bytes, across
// processes and restarts, which is what makes EntryID stable enough to use
// as a storage key.
//
// This encoding is for interchange and storage identity only; the validators
// themselves never serialize anything.
func MarshalCanonical(e Entry) ([]byte, error) {
	// Keys listed in sorted order; all are ASCII so byte order and UTF-16
	// code-unit order agree.
	fields := []struct {
		key string
		val any
	}{
		{"action", e.Action},
		{"actor", e.Actor},
		{"entity_id", e.EntityID},
		{"from_state", e.FromState},
		{"metadata", e.Metadata},
		{"timestamp", e.Timestamp},
		{"to_state", e.ToState},
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := canonicalString(f.key)
		if err != nil {
			return nil, fmt.Errorf("marshal canonical: key %q: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		switch v := f.val.(type) {
		case string:
			val, err := canonicalString(v)
			if err != nil {
				return nil, fmt.Errorf("marshal canonical: field %q: %w", f.key, err)
			}
			buf.Write(val)
		case int64:
			fmt.Fprintf(&buf, "%d", v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EntryID computes the content-addressed identity of an entry:
// SHA-256 over the domain prefix, a null separator, and the canonical JSON
// bytes. The separator removes domain/payload boundary ambiguity.
func EntryID(e Entry) (string, error) {
	data, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("entry id: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(entryDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalString encodes a JSON string with NFC normalization and HTML
// escaping disabled, so `<`, `>`, and `&` survive byte-for-byte.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	// The encoder appends a newline; strip it.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
