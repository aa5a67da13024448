package extensions

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

func builtinCommands() []eval.Command {
	cmds := []eval.Command{
		{
			Name:     "to json",
			Help:     "serializes the input as JSON (indented unless --raw)",
			Flags:    []string{"raw"},
			Callback: toJSON,
		},
		{
			Name:     "from json",
			Help:     "parses the input string as JSON",
			Callback: fromJSON,
		},
		{
			Name: "length",
			Help: "number of elements of a list or fields of a record",
			Callback: func(c *eval.Call) object.Object {
				switch v := c.Input.(type) {
				case object.List:
					return object.Integer{Value: int64(len(v.Elements))}
				case object.Record:
					return object.Integer{Value: int64(v.Len())}
				case object.Null:
					return object.Integer{Value: 0}
				}
				return c.TypeError("input", c.Input, object.LIST, object.RECORD)
			},
		},
		{
			Name:     "get",
			Help:     "field of a record or element of a list, or a dotted path of them (a.b.0)",
			MinArgs:  1,
			MaxArgs:  1,
			Callback: get,
		},
		{
			Name:     "first",
			Help:     "first element, or the first n as a list",
			MaxArgs:  1,
			ArgTypes: []object.Type{object.INTEGER},
			Callback: func(c *eval.Call) object.Object { return firstLast(c, true) },
		},
		{
			Name:     "last",
			Help:     "last element, or the last n as a list",
			MaxArgs:  1,
			ArgTypes: []object.Type{object.INTEGER},
			Callback: func(c *eval.Call) object.Object { return firstLast(c, false) },
		},
		{
			Name: "reverse",
			Help: "reverses a list",
			Callback: func(c *eval.Call) object.Object {
				l, errObj := inputList(c)
				if errObj != nil {
					return errObj
				}
				res := make([]object.Object, len(l))
				for i, e := range l {
					res[len(l)-1-i] = e
				}
				return object.List{Elements: res}
			},
		},
		{
			Name:  "sort",
			Help:  "sorts a list (numbers, strings, durations, bools)",
			Flags: []string{"reverse"},
			Callback: func(c *eval.Call) object.Object {
				l, errObj := inputList(c)
				if errObj != nil {
					return errObj
				}
				res := append([]object.Object{}, l...)
				object.SortObjects(res)
				if c.HasFlag("reverse") {
					for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
						res[i], res[j] = res[j], res[i]
					}
				}
				return object.List{Elements: res}
			},
		},
		{
			Name: "uniq",
			Help: "removes duplicates, keeping the first occurrence",
			Callback: func(c *eval.Call) object.Object {
				l, errObj := inputList(c)
				if errObj != nil {
					return errObj
				}
				res := make([]object.Object, 0, len(l))
			outer:
				for _, e := range l {
					for _, seen := range res {
						if object.Equals(e, seen) {
							continue outer
						}
					}
					res = append(res, e)
				}
				return object.List{Elements: res}
			},
		},
		{
			Name:     "each",
			Help:     "runs the closure for each element and collects the results",
			MinArgs:  1,
			MaxArgs:  1,
			ArgTypes: []object.Type{object.CLOSURE},
			Callback: each,
		},
		{
			Name:     "where",
			Help:     "keeps the elements for which the closure returns true",
			MinArgs:  1,
			MaxArgs:  1,
			ArgTypes: []object.Type{object.CLOSURE},
			Callback: where,
		},
		{
			Name:     "reduce",
			Help:     "folds the list with {|element, accumulator| ...}, starting with the optional second argument",
			MinArgs:  1,
			MaxArgs:  2,
			ArgTypes: []object.Type{object.CLOSURE, object.ANY},
			Callback: reduce,
		},
		{
			Name:     "keys",
			Help:     "field names of a record (or of a list of records)",
			Callback: keys,
		},
		{
			Name: "values",
			Help: "field values of a record",
			Callback: func(c *eval.Call) object.Object {
				r, errObj := inputRecord(c)
				if errObj != nil {
					return errObj
				}
				return object.List{Elements: append([]object.Object{}, r.Values()...)}
			},
		},
		{
			Name:     "insert",
			Help:     "adds a new field to a record",
			MinArgs:  2,
			MaxArgs:  2,
			ArgTypes: []object.Type{object.STRING, object.ANY},
			Callback: func(c *eval.Call) object.Object {
				r, errObj := inputRecord(c)
				if errObj != nil {
					return errObj
				}
				name := argString(c, 0)
				if _, found := r.Get(name); found {
					return c.Errorf(object.KindIncorrectArgs, "column %q already exists", name)
				}
				return r.With(name, c.Args[1])
			},
		},
		{
			Name:     "merge",
			Help:     "merges the fields of the argument record into the input record",
			MinArgs:  1,
			MaxArgs:  1,
			ArgTypes: []object.Type{object.RECORD},
			Callback: func(c *eval.Call) object.Object {
				r, errObj := inputRecord(c)
				if errObj != nil {
					return errObj
				}
				other := c.Args[0].(object.Record)
				res := r
				for i, k := range other.Keys() {
					res = res.With(k, other.Values()[i])
				}
				return res
			},
		},
		{
			Name:    "append",
			Help:    "appends the argument (or its elements if a list) to the input",
			MinArgs: 1,
			MaxArgs: 1,
			Callback: func(c *eval.Call) object.Object {
				in := elements(c.Input)
				add := elements(c.Args[0])
				res := make([]object.Object, 0, len(in)+len(add))
				res = append(res, in...)
				res = append(res, add...)
				return object.List{Elements: res}
			},
		},
	}
	cmds = append(cmds, eval.Command{Name: "columns", Help: "same as keys", Callback: keys})
	cmds = append(cmds, stringCommands()...)
	cmds = append(cmds, mathCommands()...)
	cmds = append(cmds, formatCommands()...)
	return cmds
}

func toJSON(c *eval.Call) object.Object {
	var buf bytes.Buffer
	if err := object.JSON(&buf, c.Input); err != nil {
		return c.Errorf(object.KindCantConvert, "%v", err)
	}
	if c.HasFlag("raw") {
		return object.String{Value: buf.String()}
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return c.Errorf(object.KindCantConvert, "%v", err)
	}
	return object.String{Value: out.String()}
}

func fromJSON(c *eval.Call) object.Object {
	s, errObj := inputString(c)
	if errObj != nil {
		return errObj
	}
	res, err := object.FromJSON([]byte(s))
	if err != nil {
		return c.Errorf(object.KindCantConvert, "invalid JSON: %v", err)
	}
	return res
}

// get takes one member, or a dotted path of them (a.b.0) where digits index lists.
// A record field whose name contains the dots wins over the path.
func get(c *eval.Call) object.Object {
	path, ok := c.Args[0].(object.String)
	if !ok || !strings.Contains(path.Value, ".") {
		return getMember(c, c.Input, c.Args[0])
	}
	if r, isRecord := c.Input.(object.Record); isRecord {
		if v, found := r.Get(path.Value); found {
			return v
		}
	}
	cur := c.Input
	for _, part := range strings.Split(path.Value, ".") {
		var member object.Object = object.String{Value: part}
		if n, err := strconv.ParseInt(part, 10, 64); err == nil {
			member = object.Integer{Value: n}
		}
		cur = getMember(c, cur, member)
		if cur.Type() == object.ERROR {
			return cur
		}
	}
	return cur
}

func getMember(c *eval.Call, in, member object.Object) object.Object {
	switch v := in.(type) {
	case object.Record:
		key := object.ToString(member)
		if r, ok := v.Get(key); ok {
			return r
		}
		return c.Errorf(object.KindColumnNotFound, "column %q not found", key)
	case object.List:
		idx, ok := member.(object.Integer)
		if !ok {
			// column of each row, like $list.name
			name, isString := member.(object.String)
			if !isString {
				return c.TypeError("argument", member, object.INTEGER, object.STRING)
			}
			res := make([]object.Object, 0, len(v.Elements))
			for _, row := range v.Elements {
				r, isRecord := row.(object.Record)
				if !isRecord {
					return c.TypeError("row", row, object.RECORD)
				}
				f, found := r.Get(name.Value)
				if !found {
					return c.Errorf(object.KindColumnNotFound, "column %q not found", name.Value)
				}
				res = append(res, f)
			}
			return object.List{Elements: res}
		}
		if idx.Value < 0 || idx.Value >= int64(len(v.Elements)) {
			return c.Errorf(object.KindIndexOutOfRange, "index %d out of range (length %d)", idx.Value, len(v.Elements))
		}
		return v.Elements[idx.Value]
	}
	return c.TypeError("input", in, object.RECORD, object.LIST)
}

func firstLast(c *eval.Call, first bool) object.Object {
	l, errObj := inputList(c)
	if errObj != nil {
		return errObj
	}
	if len(c.Args) == 0 {
		if len(l) == 0 {
			return c.Errorf(object.KindIndexOutOfRange, "empty list")
		}
		if first {
			return l[0]
		}
		return l[len(l)-1]
	}
	n := c.Args[0].(object.Integer).Value
	if n < 0 {
		return c.Errorf(object.KindIncorrectArgs, "count must be positive, got %d", n)
	}
	n = min(n, int64(len(l)))
	if first {
		return object.List{Elements: append([]object.Object{}, l[:n]...)}
	}
	return object.List{Elements: append([]object.Object{}, l[int64(len(l))-n:]...)}
}

// stops iterations on errors and exit.
func abort(res object.Object) bool {
	return res.Type() == object.ERROR || res.Type() == object.EXIT
}

func each(c *eval.Call) object.Object {
	cl := c.Args[0].(object.Closure)
	in := elements(c.Input)
	res, err := object.MakeObjectSlice(len(in))
	if err != nil {
		return c.Errorf(object.KindResourceExhausted, "%v", err)
	}
	for _, e := range in {
		r := c.CallClosure(cl, e, e)
		if abort(r) {
			return r
		}
		res = append(res, r)
	}
	return object.List{Elements: res}
}

func where(c *eval.Call) object.Object {
	cl := c.Args[0].(object.Closure)
	in := elements(c.Input)
	res := make([]object.Object, 0, len(in))
	for _, e := range in {
		r := c.CallClosure(cl, e, e)
		if abort(r) {
			return r
		}
		b, ok := r.(object.Boolean)
		if !ok {
			return c.TypeError("closure result", r, object.BOOLEAN)
		}
		if b.Value {
			res = append(res, e)
		}
	}
	return object.List{Elements: res}
}

func reduce(c *eval.Call) object.Object {
	cl := c.Args[0].(object.Closure)
	in := elements(c.Input)
	var acc object.Object
	if len(c.Args) == 2 {
		acc = c.Args[1]
	} else {
		if len(in) == 0 {
			return c.Errorf(object.KindIncorrectArgs, "empty input and no initial value")
		}
		acc, in = in[0], in[1:]
	}
	for _, e := range in {
		acc = c.CallClosure(cl, e, e, acc)
		if abort(acc) {
			return acc
		}
	}
	return acc
}

func keys(c *eval.Call) object.Object {
	var names []string
	switch v := c.Input.(type) {
	case object.Record:
		names = v.Keys()
	case object.List:
		seen := object.NewRecord() // ordered set of the keys of all rows.
		for _, row := range v.Elements {
			r, ok := row.(object.Record)
			if !ok {
				return c.TypeError("row", row, object.RECORD)
			}
			for _, k := range r.Keys() {
				seen.Put(k, object.NULL)
			}
		}
		names = seen.Keys()
	default:
		return c.TypeError("input", c.Input, object.RECORD, object.LIST)
	}
	res := make([]object.Object, 0, len(names))
	for _, k := range names {
		res = append(res, object.String{Value: k})
	}
	return object.List{Elements: res}
}
