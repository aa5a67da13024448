package eval

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"fortio.org/log"
	"fortio.org/sets"
	"grol.io/oneshot/ast"
	"grol.io/oneshot/object"
	"grol.io/oneshot/token"
	"grol.io/oneshot/trie"
)

// Approximate maximum depth of recursion to avoid:
// runtime: goroutine stack exceeds 1000000000-byte limit
// fatal error: stack overflow.
const DefaultMaxDepth = 100_000

// Command is a native capability callable by name from programs.
type Command struct {
	Name     string
	Category string // group it was registered with: core, builtins, ...
	Help     string
	MinArgs  int
	MaxArgs  int           // -1 for unlimited.
	ArgTypes []object.Type // checked positionally, ANY to accept anything.
	Flags    []string      // accepted --flags.
	Callback func(c *Call) object.Object
}

// Flags of the session the context describes. A one shot run is never interactive.
type Flags struct {
	Interactive    bool
	Login          bool
	HistoryEnabled bool
}

var ErrDuplicateCommand = errors.New("command already registered")

// Context is the interpreter context: capabilities, declared definitions, imported
// environment and constants. One per invocation, nothing in it is shared.
type Context struct {
	Out      io.Writer // where print writes.
	MaxDepth int
	Flags    Flags

	commands  map[string]*Command
	decls     map[string]*object.Function
	names     *trie.Trie // all command and definition names, for multi word resolution.
	env       object.Record
	constants object.Record
}

func NewContext() *Context {
	return &Context{
		Out:      os.Stdout,
		MaxDepth: DefaultMaxDepth,
		commands: make(map[string]*Command),
		decls:    make(map[string]*object.Function),
		names:    trie.NewTrie(),
	}
}

// Register adds a new capability, it's an error to register the same name twice:
// use Override to replace one.
func (c *Context) Register(cmd Command) error {
	if cmd.Name == "" || cmd.Callback == nil {
		return fmt.Errorf("invalid command %q: name and callback are required", cmd.Name)
	}
	if c.HasCommand(cmd.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, cmd.Name)
	}
	if cmd.MaxArgs >= 0 && cmd.MaxArgs < cmd.MinArgs {
		return fmt.Errorf("command %q: max args %d < min args %d", cmd.Name, cmd.MaxArgs, cmd.MinArgs)
	}
	log.Debugf("registering %s command %q", cmd.Category, cmd.Name)
	c.commands[cmd.Name] = &cmd
	c.names.Insert(cmd.Name)
	return nil
}

// Override replaces an already registered capability.
func (c *Context) Override(cmd Command) error {
	prev, found := c.commands[cmd.Name]
	if !found {
		return fmt.Errorf("can't override unknown command %q", cmd.Name)
	}
	if cmd.Callback == nil {
		return fmt.Errorf("invalid override of %q: callback is required", cmd.Name)
	}
	if cmd.Category == "" {
		cmd.Category = prev.Category
	}
	log.LogVf("overriding command %q (%s)", cmd.Name, prev.Category)
	c.commands[cmd.Name] = &cmd
	return nil
}

func (c *Context) Lookup(name string) (*Command, bool) {
	cmd, ok := c.commands[name]
	return cmd, ok
}

func (c *Context) Decl(name string) (*object.Function, bool) {
	f, ok := c.decls[name]
	return f, ok
}

// HasCommand is true for both capabilities and merged definitions.
func (c *Context) HasCommand(name string) bool {
	if _, ok := c.commands[name]; ok {
		return true
	}
	_, ok := c.decls[name]
	return ok
}

func (c *Context) HasCommandPrefix(prefix string) bool {
	return c.names.HasPrefix(prefix)
}

// Commands returns the sorted names of the registered capabilities.
func (c *Context) Commands() []string {
	res := make([]string, 0, len(c.commands))
	for n := range c.commands {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}

// Decls returns the sorted names of the merged definitions.
func (c *Context) Decls() []string {
	res := make([]string, 0, len(c.decls))
	for n := range c.decls {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}

// MergeError reports a definition that can't be added to the context.
type MergeError struct {
	Name   string
	Reason string
	Span   token.Span
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("can't declare %q: %s", e.Name, e.Reason)
}

// Merge adds the definitions of a parsed program. Either all of them are merged or,
// on error, none is.
func (c *Context) Merge(defs []*ast.Def) error {
	seen := sets.New[string]()
	for _, d := range defs {
		switch {
		case seen.Has(d.Name):
			return &MergeError{Name: d.Name, Reason: "defined more than once", Span: d.Span()}
		case c.commands[d.Name] != nil:
			return &MergeError{Name: d.Name, Reason: "would shadow a built-in command", Span: d.Span()}
		case c.decls[d.Name] != nil:
			return &MergeError{Name: d.Name, Reason: "already defined", Span: d.Span()}
		}
		seen.Add(d.Name)
	}
	for _, d := range defs {
		log.Debugf("merging definition %q", d.Name)
		c.decls[d.Name] = &object.Function{Name: d.Name, Params: d.Params, Body: d.Body, Span: d.Span()}
		c.names.Insert(d.Name)
	}
	return nil
}

// AddEnv imports environment variables (as strings), sorted by name.
func (c *Context) AddEnv(vars map[string]string) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.env.Put(k, object.String{Value: vars[k]})
	}
}

// Env is the imported environment. Evaluation works on a per Stack copy.
func (c *Context) Env() object.Record {
	return c.env
}

// SetConstant sets a field of the read only $ctx record.
func (c *Context) SetConstant(name string, value object.Object) {
	c.constants.Put(name, value)
}

func (c *Context) Constants() object.Record {
	return c.constants
}
