package object

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"
)

var ErrNotSerializable = errors.New("value can't be represented as JSON")

// JSON writes the compact JSON form of o. Record key order is preserved.
// Closures, errors and non finite floats are rejected.
func JSON(w io.Writer, o Object) error {
	switch v := o.(type) {
	case Null:
		_, err := io.WriteString(w, "null")
		return err
	case Boolean:
		_, err := io.WriteString(w, strconv.FormatBool(v.Value))
		return err
	case Integer:
		_, err := io.WriteString(w, strconv.FormatInt(v.Value, 10))
		return err
	case Float:
		s, err := jsonFloat(v.Value)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case String:
		return writeJSONString(w, v.Value)
	case Duration:
		// as integer nanoseconds.
		_, err := io.WriteString(w, strconv.FormatInt(int64(v.Value), 10))
		return err
	case List:
		if _, err := io.WriteString(w, "["); err != nil {
			return err
		}
		for i, e := range v.Elements {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if err := JSON(w, e); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "]")
		return err
	case Record:
		if _, err := io.WriteString(w, "{"); err != nil {
			return err
		}
		for i, k := range v.keys {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if err := writeJSONString(w, k); err != nil {
				return err
			}
			if _, err := io.WriteString(w, ":"); err != nil {
				return err
			}
			if err := JSON(w, v.values[i]); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "}")
		return err
	default:
		return fmt.Errorf("%w: %s", ErrNotSerializable, o.Type())
	}
}

func jsonFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrNotSerializable, f)
	}
	return Float{Value: f}.Inspect(), nil
}

const hexDigits = "0123456789abcdef"

func writeJSONString(w io.Writer, s string) error {
	buf := make([]byte, 0, len(s)+2)
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				buf = append(buf, '\\', c)
			case c == '\n':
				buf = append(buf, '\\', 'n')
			case c == '\r':
				buf = append(buf, '\\', 'r')
			case c == '\t':
				buf = append(buf, '\\', 't')
			case c < 0x20:
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			default:
				buf = append(buf, c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, `�`...)
		} else {
			buf = append(buf, s[i:i+size]...)
		}
		i += size
	}
	buf = append(buf, '"')
	_, err := w.Write(buf)
	return err
}
