package extensions

import (
	"io"
	"os"
	"strings"

	"fortio.org/log"
	"fortio.org/safecast"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/lexer"
	"grol.io/oneshot/object"
	"grol.io/oneshot/token"
)

// RegisterCustom adds the runner's own commands on top of the standard groups:
// `exit` replaces the default one, `highlight` and `print` are new.
func RegisterCustom(ctx *eval.Context) error {
	if err := ctx.Override(eval.Command{
		Name:     "exit",
		Category: CategoryCustom,
		Help:     "stops the program with the given exit status (0 to 255, default 0)",
		MaxArgs:  1,
		ArgTypes: []object.Type{object.INTEGER},
		Callback: exit,
	}); err != nil {
		return err
	}
	return Register(ctx, CategoryCustom,
		eval.Command{
			Name:     "highlight",
			Help:     "syntax highlights the input program text with ANSI colors",
			Callback: highlight,
		},
		eval.Command{
			Name:     "print",
			Help:     "prints the arguments (or the input when there are none) followed by a newline",
			MaxArgs:  -1,
			Flags:    []string{"no-newline", "stderr"},
			Callback: printCmd,
		},
	)
}

func exit(c *eval.Call) object.Object {
	if len(c.Args) == 0 {
		return object.Exit{Code: 0}
	}
	requested := c.Args[0].(object.Integer).Value
	code, err := safecast.Convert[uint8](requested)
	if err != nil {
		return c.Errorf(object.KindInvalidExitCode, "exit code %d out of range 0..255", requested)
	}
	log.LogVf("exit %d requested", code)
	return object.Exit{Code: int(code)}
}

func printCmd(c *eval.Call) object.Object {
	var w io.Writer = c.Ctx.Out
	if c.HasFlag("stderr") {
		w = os.Stderr
	}
	values := c.Args
	if len(values) == 0 {
		values = elements(c.Input)
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, object.ToString(v))
	}
	s := strings.Join(parts, " ")
	if !c.HasFlag("no-newline") {
		s += "\n"
	}
	if _, err := io.WriteString(w, s); err != nil {
		return c.Errorf(object.KindCommandFailed, "%v", err)
	}
	return object.NULL
}

func highlight(c *eval.Call) object.Object {
	src, errObj := inputString(c)
	if errObj != nil {
		return errObj
	}
	return object.String{Value: Highlight(c.Ctx, src)}
}

// Highlight colors src token by token, the text between tokens (spaces, comments) is kept as is.
func Highlight(ctx *eval.Context, src string) string {
	colors := log.ANSIColors
	var b strings.Builder
	prev := 0
	for _, tok := range lexer.Tokenize(src) {
		if tok.Type == token.EOF {
			break
		}
		start, end := min(tok.Start, len(src)), min(tok.End, len(src))
		if start < prev {
			continue
		}
		b.WriteString(src[prev:start])
		text := src[start:end]
		prev = end
		color := ""
		switch {
		case token.Info().Keywords.Has(text):
			color = colors.Purple
		case tok.Type == token.IDENT && (ctx.HasCommand(text) || ctx.HasCommandPrefix(text)):
			color = colors.Blue
		}
		switch tok.Type { //nolint:exhaustive // operators and delimiters are left plain.
		case token.STRING:
			color = colors.Green
		case token.INT, token.FLOAT:
			color = colors.Cyan
		case token.VARIABLE:
			color = colors.Yellow
		case token.FLAG:
			color = colors.Gray
		case token.ILLEGAL:
			color = colors.Red
		}
		if color == "" {
			b.WriteString(text)
			continue
		}
		b.WriteString(color)
		b.WriteString(text)
		b.WriteString(colors.Reset)
	}
	b.WriteString(src[min(prev, len(src)):])
	return b.String()
}
