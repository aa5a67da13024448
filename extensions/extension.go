// Package extensions provides the capabilities (native commands) of the language,
// organized in groups registered in a fixed order into an [eval.Context].
package extensions

import (
	"fmt"

	"fortio.org/log"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

// Categories, also the group names.
const (
	CategoryCore     = "core"
	CategoryPlugin   = "plugin"
	CategoryBuiltins = "builtins"
	CategoryExtra    = "extra"
	CategoryCLI      = "cli"
	CategoryExplore  = "explore"
	CategoryCustom   = "custom"
)

// Group is a named set of capabilities.
type Group struct {
	Name     string
	Commands func() []eval.Command
}

// Groups returns the standard groups in registration order.
func Groups() []Group {
	return []Group{
		{CategoryCore, coreCommands},
		{CategoryPlugin, pluginCommands},
		{CategoryBuiltins, builtinCommands},
		{CategoryExtra, extraCommands},
		{CategoryCLI, cliCommands},
		{CategoryExplore, exploreCommands},
	}
}

// RegisterGroups registers all the standard groups, in order. Any name collision is an error.
func RegisterGroups(ctx *eval.Context) error {
	for _, g := range Groups() {
		if err := Register(ctx, g.Name, g.Commands()...); err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}
	}
	return nil
}

// Register adds the commands to ctx, tagged with category.
func Register(ctx *eval.Context, category string, cmds ...eval.Command) error {
	for _, cmd := range cmds {
		cmd.Category = category
		if err := ctx.Register(cmd); err != nil {
			return err
		}
	}
	log.LogVf("registered %d %s commands", len(cmds), category)
	return nil
}

// elements returns the input as a list: lists as is, null as empty, anything else as a 1 element list.
func elements(o object.Object) []object.Object {
	switch v := o.(type) {
	case object.List:
		return v.Elements
	case object.Null:
		return nil
	default:
		return []object.Object{o}
	}
}

func inputString(c *eval.Call) (string, object.Object) {
	s, ok := c.Input.(object.String)
	if !ok {
		return "", c.TypeError("input", c.Input, object.STRING)
	}
	return s.Value, nil
}

func inputList(c *eval.Call) ([]object.Object, object.Object) {
	l, ok := c.Input.(object.List)
	if !ok {
		return nil, c.TypeError("input", c.Input, object.LIST)
	}
	return l.Elements, nil
}

func inputRecord(c *eval.Call) (object.Record, object.Object) {
	r, ok := c.Input.(object.Record)
	if !ok {
		return r, c.TypeError("input", c.Input, object.RECORD)
	}
	return r, nil
}

func argString(c *eval.Call, i int) string {
	return c.Args[i].(object.String).Value
}
