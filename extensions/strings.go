package extensions

import (
	"strings"

	"github.com/rivo/uniseg"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

// stringCommand wraps a string -> string function into a command, mapped over lists of strings.
func stringCommand(name, help string, fn func(string) string) eval.Command {
	return eval.Command{
		Name: name,
		Help: help,
		Callback: func(c *eval.Call) object.Object {
			return mapStrings(c, func(s string) object.Object { return object.String{Value: fn(s)} })
		},
	}
}

func mapStrings(c *eval.Call, fn func(string) object.Object) object.Object {
	switch v := c.Input.(type) {
	case object.String:
		return fn(v.Value)
	case object.List:
		res := make([]object.Object, 0, len(v.Elements))
		for _, e := range v.Elements {
			s, ok := e.(object.String)
			if !ok {
				return c.TypeError("element", e, object.STRING)
			}
			res = append(res, fn(s.Value))
		}
		return object.List{Elements: res}
	}
	return c.TypeError("input", c.Input, object.STRING, object.LIST)
}

func stringCommands() []eval.Command {
	return []eval.Command{
		stringCommand("str upcase", "upper case", strings.ToUpper),
		stringCommand("str downcase", "lower case", strings.ToLower),
		stringCommand("str trim", "removes leading and trailing white space", strings.TrimSpace),
		{
			Name:  "str length",
			Help:  "length in grapheme clusters (user perceived characters), or in bytes with --bytes",
			Flags: []string{"bytes"},
			Callback: func(c *eval.Call) object.Object {
				bytes := c.HasFlag("bytes")
				return mapStrings(c, func(s string) object.Object {
					if bytes {
						return object.Integer{Value: int64(len(s))}
					}
					return object.Integer{Value: int64(uniseg.GraphemeClusterCount(s))}
				})
			},
		},
		{
			Name:     "str contains",
			Help:     "true if the input contains the argument",
			Flags:    []string{"ignore-case"},
			MinArgs:  1,
			MaxArgs:  1,
			ArgTypes: []object.Type{object.STRING},
			Callback: func(c *eval.Call) object.Object {
				needle := argString(c, 0)
				fold := c.HasFlag("ignore-case")
				if fold {
					needle = strings.ToLower(needle)
				}
				return mapStrings(c, func(s string) object.Object {
					if fold {
						s = strings.ToLower(s)
					}
					return object.NativeBoolToBooleanObject(strings.Contains(s, needle))
				})
			},
		},
		{
			Name:     "split row",
			Help:     "splits the input string on the separator",
			MinArgs:  1,
			MaxArgs:  1,
			ArgTypes: []object.Type{object.STRING},
			Callback: func(c *eval.Call) object.Object {
				s, errObj := inputString(c)
				if errObj != nil {
					return errObj
				}
				parts := strings.Split(s, argString(c, 0))
				res := make([]object.Object, 0, len(parts))
				for _, p := range parts {
					res = append(res, object.String{Value: p})
				}
				return object.List{Elements: res}
			},
		},
		{
			Name:     "str join",
			Help:     "joins the input list with the optional separator",
			MaxArgs:  1,
			ArgTypes: []object.Type{object.STRING},
			Callback: func(c *eval.Call) object.Object {
				l, errObj := inputList(c)
				if errObj != nil {
					return errObj
				}
				sep := ""
				if len(c.Args) == 1 {
					sep = argString(c, 0)
				}
				parts := make([]string, 0, len(l))
				for _, e := range l {
					parts = append(parts, object.ToString(e))
				}
				return object.String{Value: strings.Join(parts, sep)}
			},
		},
	}
}

func extraStringCommands() []eval.Command {
	return []eval.Command{
		{
			Name: "str width",
			Help: "monospace display width (east asian wide characters and emojis count as 2)",
			Callback: func(c *eval.Call) object.Object {
				return mapStrings(c, func(s string) object.Object {
					return object.Integer{Value: int64(uniseg.StringWidth(s))}
				})
			},
		},
		stringCommand("str title-case", "upper cases the first letter of each word", titleCase),
	}
}

func titleCase(s string) string {
	var b strings.Builder
	state := -1
	var word string
	for len(s) > 0 {
		word, s, state = uniseg.FirstWordInString(s, state)
		b.WriteString(capitalize(word))
	}
	return b.String()
}

func capitalize(word string) string {
	cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(word, -1)
	return strings.ToUpper(cluster) + strings.ToLower(rest)
}
