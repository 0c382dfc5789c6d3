// Package ctxutil locates the structural markers the client needs from
// an otherwise opaque context document: the _multi action array, the
// _slots array, and per-slot _id names. Nothing else is interpreted.
package ctxutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tjfontaine/decision-client/status"
)

// Info describes the structural layout of a context document.
type Info struct {
	// ActionCount is the number of entries in the top-level _multi
	// array, 0 when absent.
	ActionCount int

	// MultiOffset and SlotsOffset are the byte offsets at which the
	// respective keys were seen, -1 when absent. Only their relative
	// order is meaningful.
	MultiOffset int64
	SlotsOffset int64

	// SlotIDs holds the _id of each _slots entry, "" where missing.
	SlotIDs []string
}

// HasMulti reports whether the document carries a _multi array.
func (i *Info) HasMulti() bool { return i.MultiOffset >= 0 }

// HasSlots reports whether the document carries a _slots array.
func (i *Info) HasSlots() bool { return i.SlotsOffset >= 0 }

// SlotCount is the number of _slots entries.
func (i *Info) SlotCount() int { return len(i.SlotIDs) }

// Parse scans the top level of a context document. It fails with
// JSONParseError on malformed JSON or a non-object top level.
func Parse(doc []byte) (*Info, error) {
	info := &Info{MultiOffset: -1, SlotsOffset: -1}

	dec := json.NewDecoder(bytes.NewReader(doc))
	tok, err := dec.Token()
	if err != nil {
		return nil, status.New(status.JSONParseError, "context is not valid JSON: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, status.New(status.JSONParseError, "context top level must be an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, status.New(status.JSONParseError, "context is not valid JSON: %v", err)
		}
		key, _ := keyTok.(string)
		offset := dec.InputOffset()

		switch key {
		case "_multi":
			info.MultiOffset = offset
			n, err := countArray(dec)
			if err != nil {
				return nil, err
			}
			info.ActionCount = n
		case "_slots":
			info.SlotsOffset = offset
			ids, err := slotIDs(dec)
			if err != nil {
				return nil, err
			}
			info.SlotIDs = ids
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, status.New(status.JSONParseError, "context value for %q is not valid JSON: %v", key, err)
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, status.New(status.JSONParseError, "context is not valid JSON: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, status.New(status.JSONParseError, "context has trailing data after the top-level object")
	}
	return info, nil
}

func countArray(dec *json.Decoder) (int, error) {
	tok, err := dec.Token()
	if err != nil {
		return 0, status.New(status.JSONParseError, "_multi is not valid JSON: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return 0, status.New(status.JSONParseError, "_multi must be an array")
	}
	n := 0
	for dec.More() {
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return 0, status.New(status.JSONParseError, "_multi entry is not valid JSON: %v", err)
		}
		n++
	}
	if _, err := dec.Token(); err != nil {
		return 0, status.New(status.JSONParseError, "_multi is not valid JSON: %v", err)
	}
	return n, nil
}

func slotIDs(dec *json.Decoder) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, status.New(status.JSONParseError, "_slots is not valid JSON: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, status.New(status.JSONParseError, "_slots must be an array")
	}
	var ids []string
	for dec.More() {
		var slot struct {
			ID string `json:"_id"`
		}
		if err := dec.Decode(&slot); err != nil {
			return nil, status.New(status.JSONParseError, "_slots entry is not an object: %v", err)
		}
		ids = append(ids, slot.ID)
	}
	if _, err := dec.Token(); err != nil {
		return nil, status.New(status.JSONParseError, "_slots is not valid JSON: %v", err)
	}
	return ids, nil
}

// InjectHistory splices a _history array into the top of a context
// document without otherwise disturbing it. history must already be
// marshaled JSON.
func InjectHistory(doc, history []byte) ([]byte, error) {
	trimmed := bytes.TrimLeft(doc, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, status.New(status.JSONParseError, "context top level must be an object")
	}
	open := bytes.IndexByte(doc, '{')
	var buf bytes.Buffer
	buf.Grow(len(doc) + len(history) + 16)
	buf.Write(doc[:open+1])
	buf.WriteString(`"_history":`)
	buf.Write(history)
	rest := bytes.TrimLeft(doc[open+1:], " \t\r\n")
	if len(rest) > 0 && rest[0] != '}' {
		buf.WriteByte(',')
	}
	buf.Write(doc[open+1:])
	return buf.Bytes(), nil
}

// EventIDs builds the per-slot event-id list for a decision call,
// taking declared _id values and leaving "" for the caller to fill.
func EventIDs(info *Info) ([]string, error) {
	if !info.HasSlots() {
		return nil, fmt.Errorf("context has no _slots")
	}
	ids := make([]string, info.SlotCount())
	copy(ids, info.SlotIDs)
	return ids, nil
}
