package layout

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// compositeSeparator joins the components of a composite row key.
// Components therefore cannot contain a 0x00 byte.
const compositeSeparator = byte(0)

// DecodeEntityID converts a client-supplied entity identifier token into
// raw row-key bytes according to the table's row-key format.
//
// Token shapes per format:
//   - raw: any non-empty string, used verbatim
//   - hex: hex digits, e.g. "6a6f65"
//   - composite: JSON array of strings, e.g. `["us","user17"]`
//
// Returns an error when the token cannot be decoded; the caller maps it
// to the malformed-row-key client error.
func (t *Table) DecodeEntityID(token string) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("empty entity identifier")
	}
	switch t.RowKey {
	case KeyFormatRaw:
		return []byte(token), nil

	case KeyFormatHex:
		key, err := hex.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("entity identifier is not valid hex: %w", err)
		}
		if len(key) == 0 {
			return nil, fmt.Errorf("empty entity identifier")
		}
		return key, nil

	case KeyFormatComposite:
		var components []string
		dec := json.NewDecoder(strings.NewReader(token))
		if err := dec.Decode(&components); err != nil {
			return nil, fmt.Errorf("entity identifier is not a JSON string array: %w", err)
		}
		if len(components) == 0 {
			return nil, fmt.Errorf("entity identifier has no components")
		}
		for _, c := range components {
			if strings.ContainsRune(c, rune(compositeSeparator)) {
				return nil, fmt.Errorf("entity identifier component contains NUL")
			}
		}
		return bytes.Join(stringsToBytes(components), []byte{compositeSeparator}), nil

	default:
		return nil, fmt.Errorf("unknown row_key format %q", t.RowKey)
	}
}

// DecodeHexKey converts a hex-encoded scan bound (start_rk / end_rk) into
// raw row-key bytes. Bounds use hex for every table regardless of the
// entity-identifier format.
func DecodeHexKey(token string) ([]byte, error) {
	key, err := hex.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("row key is not valid hex: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("empty row key")
	}
	return key, nil
}

// EncodeRowKey renders raw row-key bytes for output documents. Always
// hex, matching the encoding of scan bounds.
func EncodeRowKey(key []byte) string {
	return hex.EncodeToString(key)
}

// EntityID renders raw row-key bytes back into the table's
// entity-identifier representation for output documents. Keys of a
// composite table are rendered as a JSON array string; raw keys as the
// literal string; hex keys as hex.
func (t *Table) EntityID(key []byte) string {
	switch t.RowKey {
	case KeyFormatRaw:
		return string(key)
	case KeyFormatComposite:
		parts := bytes.Split(key, []byte{compositeSeparator})
		components := make([]string, len(parts))
		for i, p := range parts {
			components[i] = string(p)
		}
		out, err := json.Marshal(components)
		if err != nil {
			return EncodeRowKey(key)
		}
		return string(out)
	default:
		return EncodeRowKey(key)
	}
}

func stringsToBytes(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
