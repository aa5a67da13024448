package extensions

import (
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

func coreCommands() []eval.Command {
	return []eval.Command{
		{
			Name:    "echo",
			Help:    "returns its arguments: the single one as is, several as a list",
			MaxArgs: -1,
			Callback: func(c *eval.Call) object.Object {
				switch len(c.Args) {
				case 0:
					return object.NULL
				case 1:
					return c.Args[0]
				}
				return object.List{Elements: c.Args}
			},
		},
		{
			Name: "describe",
			Help: "type of the input",
			Callback: func(c *eval.Call) object.Object {
				return object.String{Value: c.Input.Type().String()}
			},
		},
		{
			Name: "ignore",
			Help: "discards the input",
			Callback: func(*eval.Call) object.Object {
				return object.NULL
			},
		},
		{
			Name:     "do",
			Help:     "runs a closure with the input and the remaining arguments",
			MinArgs:  1,
			MaxArgs:  -1,
			ArgTypes: []object.Type{object.CLOSURE},
			Callback: func(c *eval.Call) object.Object {
				return c.CallClosure(c.Args[0].(object.Closure), c.Input, c.Args[1:]...)
			},
		},
		{
			Name:    "error make",
			Help:    "creates an error from a message or a {msg: ...} record",
			MinArgs: 1,
			MaxArgs: 1,
			Callback: func(c *eval.Call) object.Object {
				var msg object.Object = c.Args[0]
				if r, ok := msg.(object.Record); ok {
					m, found := r.Get("msg")
					if !found {
						return c.Errorf(object.KindColumnNotFound, "record needs a msg field")
					}
					msg = m
				}
				return object.Error{Kind: object.KindUser, Msg: object.ToString(msg)}
			},
		},
		{
			Name:    "exit",
			Help:    "exits the session (not available without a host)",
			MaxArgs: 1,
			Callback: func(c *eval.Call) object.Object {
				return c.Errorf(object.KindNotSupported, "not available in this context")
			},
		},
	}
}
