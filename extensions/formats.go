package extensions

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

func formatCommands() []eval.Command {
	return []eval.Command{
		{
			Name: "to yaml",
			Help: "serializes the input as YAML, keeping the record fields order",
			Callback: func(c *eval.Call) object.Object {
				node, err := yamlNode(c.Input)
				if err != nil {
					return c.Errorf(object.KindCantConvert, "%v", err)
				}
				var buf bytes.Buffer
				enc := yaml.NewEncoder(&buf)
				enc.SetIndent(2)
				if err = enc.Encode(node); err == nil {
					err = enc.Close()
				}
				if err != nil {
					return c.Errorf(object.KindCantConvert, "%v", err)
				}
				return object.String{Value: buf.String()}
			},
		},
		{
			Name: "from yaml",
			Help: "parses the input string as YAML (first document only)",
			Callback: func(c *eval.Call) object.Object {
				s, errObj := inputString(c)
				if errObj != nil {
					return errObj
				}
				var doc yaml.Node
				if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
					return c.Errorf(object.KindCantConvert, "invalid YAML: %v", err)
				}
				res, err := fromYAML(&doc)
				if err != nil {
					return c.Errorf(object.KindCantConvert, "%v", err)
				}
				return res
			},
		},
		{
			Name: "to toml",
			Help: "serializes the input record as TOML",
			Callback: func(c *eval.Call) object.Object {
				r, errObj := inputRecord(c)
				if errObj != nil {
					return errObj
				}
				if err := checkNoNull(r); err != nil {
					return c.Errorf(object.KindCantConvert, "%v", err)
				}
				v, err := object.ToGo(r)
				if err != nil {
					return c.Errorf(object.KindCantConvert, "%v", err)
				}
				b, err := toml.Marshal(v)
				if err != nil {
					return c.Errorf(object.KindCantConvert, "%v", err)
				}
				return object.String{Value: string(b)}
			},
		},
		{
			Name: "from toml",
			Help: "parses the input string as a TOML document",
			Callback: func(c *eval.Call) object.Object {
				s, errObj := inputString(c)
				if errObj != nil {
					return errObj
				}
				var m map[string]any
				if err := toml.Unmarshal([]byte(s), &m); err != nil {
					return c.Errorf(object.KindCantConvert, "invalid TOML: %v", err)
				}
				return object.FromGo(m)
			},
		},
	}
}

var errNullInTOML = errors.New("toml has no null value")

func checkNoNull(o object.Object) error {
	switch v := o.(type) {
	case object.Null:
		return errNullInTOML
	case object.List:
		for _, e := range v.Elements {
			if err := checkNoNull(e); err != nil {
				return err
			}
		}
	case object.Record:
		for i, e := range v.Values() {
			if err := checkNoNull(e); err != nil {
				return fmt.Errorf("%s: %w", v.Keys()[i], err)
			}
		}
	}
	return nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlNode(o object.Object) (*yaml.Node, error) {
	switch v := o.(type) {
	case object.Null:
		return scalar("!!null", "null"), nil
	case object.Boolean:
		return scalar("!!bool", strconv.FormatBool(v.Value)), nil
	case object.Integer:
		return scalar("!!int", strconv.FormatInt(v.Value, 10)), nil
	case object.Float:
		switch {
		case math.IsNaN(v.Value):
			return scalar("!!float", ".nan"), nil
		case math.IsInf(v.Value, 1):
			return scalar("!!float", ".inf"), nil
		case math.IsInf(v.Value, -1):
			return scalar("!!float", "-.inf"), nil
		}
		return scalar("!!float", v.Inspect()), nil
	case object.String:
		return scalar("!!str", v.Value), nil
	case object.Duration:
		return scalar("!!str", v.Inspect()), nil
	case object.List:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elements {
			en, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	case object.Record:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, k := range v.Keys() {
			en, err := yamlNode(v.Values()[i])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, scalar("!!str", k), en)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s", object.ErrNotSerializable, o.Type())
}

func fromYAML(n *yaml.Node) (object.Object, error) {
	switch n.Kind {
	case 0:
		return object.NULL, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return object.NULL, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		res := make([]object.Object, 0, len(n.Content))
		for _, e := range n.Content {
			o, err := fromYAML(e)
			if err != nil {
				return nil, err
			}
			res = append(res, o)
		}
		return object.List{Elements: res}, nil
	case yaml.MappingNode:
		res := object.NewRecord()
		for i := 0; i+1 < len(n.Content); i += 2 {
			o, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			res.Put(n.Content[i].Value, o)
		}
		return res, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, fmt.Errorf("line %d: unexpected yaml node kind %v", n.Line, n.Kind)
}

func yamlScalar(n *yaml.Node) (object.Object, error) {
	var err error
	switch n.ShortTag() {
	case "!!null":
		return object.NULL, nil
	case "!!bool":
		var b bool
		if err = n.Decode(&b); err == nil {
			return object.NativeBoolToBooleanObject(b), nil
		}
	case "!!int":
		var i int64
		if err = n.Decode(&i); err == nil {
			return object.Integer{Value: i}, nil
		}
	case "!!float":
		var f float64
		if err = n.Decode(&f); err == nil {
			return object.Float{Value: f}, nil
		}
	default:
		return object.String{Value: n.Value}, nil
	}
	return nil, fmt.Errorf("line %d: %w", n.Line, err)
}
