package extensions

import (
	"fortio.org/version"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

// ModulePath is used to find our version in the build info.
const ModulePath = "grol.io/oneshot"

func pluginCommands() []eval.Command {
	return []eval.Command{
		{
			Name: "plugin list",
			Help: "lists loaded plugins (there are none)",
			Callback: func(*eval.Call) object.Object {
				return object.List{Elements: []object.Object{}}
			},
		},
		{
			Name:     "plugin use",
			Help:     "loading plugins is not supported",
			MinArgs:  1,
			MaxArgs:  1,
			ArgTypes: []object.Type{object.STRING},
			Callback: func(c *eval.Call) object.Object {
				return c.Errorf(object.KindNotSupported, "can't load plugin %q: plugins are not supported", argString(c, 0))
			},
		},
	}
}

func cliCommands() []eval.Command {
	return []eval.Command{
		{
			Name: "version",
			Help: "version information",
			Callback: func(c *eval.Call) object.Object {
				short, long, full := version.FromBuildInfoPath(ModulePath)
				rec := object.NewRecord()
				rec.Put("version", object.String{Value: short})
				rec.Put("long", object.String{Value: long})
				rec.Put("full", object.String{Value: full})
				rec.Put("interactive", object.NativeBoolToBooleanObject(c.Ctx.Flags.Interactive))
				return rec
			},
		},
		{
			Name: "history",
			Help: "command history, when enabled",
			Callback: func(c *eval.Call) object.Object {
				if !c.Ctx.Flags.HistoryEnabled {
					return c.Errorf(object.KindNotSupported, "history is disabled")
				}
				return object.List{Elements: []object.Object{}}
			},
		},
		{
			Name: "commandline",
			Help: "current command line buffer (always empty outside of an interactive session)",
			Callback: func(*eval.Call) object.Object {
				return object.String{Value: ""}
			},
		},
	}
}

func exploreCommands() []eval.Command {
	return []eval.Command{
		{
			Name: "explore",
			Help: "interactive table viewer",
			Callback: func(c *eval.Call) object.Object {
				if !c.Ctx.Flags.Interactive {
					return c.Errorf(object.KindNotSupported, "requires an interactive session")
				}
				return c.Input
			},
		},
	}
}
