package object

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FromGo converts decoded Go data (as produced by yaml, toml or json decoders) into objects.
// Map keys are sorted as Go maps have no order.
func FromGo(v any) Object {
	switch v := v.(type) {
	case nil:
		return NULL
	case Object:
		return v
	case bool:
		return NativeBoolToBooleanObject(v)
	case int:
		return Integer{Value: int64(v)}
	case int64:
		return Integer{Value: v}
	case int32:
		return Integer{Value: int64(v)}
	case uint64:
		if v > math.MaxInt64 {
			return Float{Value: float64(v)}
		}
		return Integer{Value: int64(v)}
	case float64:
		return Float{Value: v}
	case float32:
		return Float{Value: float64(v)}
	case string:
		return String{Value: v}
	case json.Number:
		return fromNumber(string(v))
	case time.Time:
		return String{Value: v.Format(time.RFC3339Nano)}
	case time.Duration:
		return Duration{Value: v}
	case []any:
		elems := make([]Object, 0, len(v))
		for _, e := range v {
			elems = append(elems, FromGo(e))
		}
		return List{Elements: elems}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			rec.Put(k, FromGo(v[k]))
		}
		return rec
	default:
		return String{Value: fmt.Sprint(v)}
	}
}

func fromNumber(s string) Object {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Integer{Value: i}
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return Float{Value: f}
}

// ToGo is the reverse of FromGo, for encoders. Records become maps so their key
// order is lost; encoders that care walk the Record directly.
func ToGo(o Object) (any, error) {
	switch v := o.(type) {
	case Null:
		return nil, nil
	case Boolean:
		return v.Value, nil
	case Integer:
		return v.Value, nil
	case Float:
		return v.Value, nil
	case String:
		return v.Value, nil
	case Duration:
		return v.Inspect(), nil
	case List:
		res := make([]any, 0, len(v.Elements))
		for _, e := range v.Elements {
			g, err := ToGo(e)
			if err != nil {
				return nil, err
			}
			res = append(res, g)
		}
		return res, nil
	case Record:
		res := make(map[string]any, v.Len())
		for i, k := range v.keys {
			g, err := ToGo(v.values[i])
			if err != nil {
				return nil, err
			}
			res[k] = g
		}
		return res, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotSerializable, o.Type())
	}
}

// FromJSON decodes a single JSON document, keeping object keys in document order.
func FromJSON(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	res, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return res, nil
}

func decodeValue(dec *json.Decoder) (Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			elems := []Object{}
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil { // ]
				return nil, err
			}
			return List{Elements: elems}, nil
		case '{':
			rec := NewRecord()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				rec.Put(key, v)
			}
			if _, err := dec.Token(); err != nil { // }
				return nil, err
			}
			return rec, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return FromGo(t), nil
	}
}
