package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/gjson"

	"eventcore/internal/errs"
	"eventcore/pkg/types"
)

// Format selects the artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json", "cbor" or "" (json).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("unsupported index format: %s", s)
	}
}

// FormatFromPath picks CBOR for .cbor files and JSON otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

var cborEnc = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Normalize returns a copy of a with every listener list sorted and
// de-duplicated and never nil.
func Normalize(a types.Artifact) types.Artifact {
	out := make(types.Artifact, len(a))
	for name, e := range a {
		seen := make(map[string]struct{}, len(e.ListenerClasses))
		ls := make([]string, 0, len(e.ListenerClasses))
		for _, id := range e.ListenerClasses {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ls = append(ls, id)
		}
		sort.Strings(ls)
		out[name] = types.IndexEntry{EventClass: e.EventClass, ListenerClasses: ls}
	}
	return out
}

// Encode serializes a normalized copy of a. Equal artifacts always encode to
// identical bytes.
func Encode(a types.Artifact, f Format) ([]byte, error) {
	n := Normalize(a)
	switch f {
	case FormatCBOR:
		return cborEnc.Marshal(n)
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(n); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported index format: %s", f)
	}
}

// Decode parses an artifact. Structural problems (wrong root type, entries
// missing eventClass or listenerClasses, wrong value types) are reported as
// *errs.ConfigError. An empty map is a valid, empty index.
func Decode(data []byte, f Format) (types.Artifact, error) {
	switch f {
	case FormatCBOR:
		return decodeCBOR(data)
	case FormatJSON, "":
		return decodeJSON(data)
	default:
		return nil, errs.Configf("index decode", "", "unsupported index format: %s", f)
	}
}

func decodeJSON(data []byte) (types.Artifact, error) {
	if err := validateJSON(data); err != nil {
		return nil, errs.Config("index decode", "", err)
	}
	var a types.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errs.Config("index decode", "", err)
	}
	return a, nil
}

func validateJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("root must be an object of event entries")
	}
	var verr error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !value.IsObject() {
			verr = fmt.Errorf("entry %q: must be an object", name)
			return false
		}
		ec := value.Get("eventClass")
		if !ec.Exists() || ec.Type != gjson.String {
			verr = fmt.Errorf("entry %q: missing string eventClass", name)
			return false
		}
		lc := value.Get("listenerClasses")
		if !lc.Exists() || !lc.IsArray() {
			verr = fmt.Errorf("entry %q: missing listenerClasses array", name)
			return false
		}
		for i, item := range lc.Array() {
			if item.Type != gjson.String {
				verr = fmt.Errorf("entry %q: listenerClasses[%d] is not a string", name, i)
				return false
			}
		}
		return true
	})
	return verr
}

// rawEntry tracks key presence, which the plain struct cannot.
type rawEntry struct {
	EventClass      *string   `cbor:"eventClass"`
	ListenerClasses *[]string `cbor:"listenerClasses"`
}

func decodeCBOR(data []byte) (types.Artifact, error) {
	var raw map[string]rawEntry
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, errs.Config("index decode", "", err)
	}
	if raw == nil {
		return nil, errs.Configf("index decode", "", "root must be a map of event entries")
	}
	a := make(types.Artifact, len(raw))
	for name, e := range raw {
		if e.EventClass == nil {
			return nil, errs.Configf("index decode", "", "entry %q: missing eventClass", name)
		}
		if e.ListenerClasses == nil {
			return nil, errs.Configf("index decode", "", "entry %q: missing listenerClasses", name)
		}
		a[name] = types.IndexEntry{EventClass: *e.EventClass, ListenerClasses: *e.ListenerClasses}
	}
	return a, nil
}
