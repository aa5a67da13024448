package extensions

import (
	"strconv"
	"strings"
	"time"

	"fortio.org/duration"
	"fortio.org/safecast"
	"grol.io/oneshot/eval"
	"grol.io/oneshot/object"
)

func mathCommands() []eval.Command {
	return []eval.Command{
		{
			Name:     "math sum",
			Help:     "sum of the numbers (or durations) of the input list",
			Callback: sum,
		},
		{
			Name: "math max",
			Help: "largest element of the input list",
			Callback: func(c *eval.Call) object.Object {
				return extremum(c, 1)
			},
		},
		{
			Name: "math min",
			Help: "smallest element of the input list",
			Callback: func(c *eval.Call) object.Object {
				return extremum(c, -1)
			},
		},
		{
			Name: "math avg",
			Help: "average of the numbers of the input list",
			Callback: func(c *eval.Call) object.Object {
				l, errObj := inputList(c)
				if errObj != nil {
					return errObj
				}
				if len(l) == 0 {
					return c.Errorf(object.KindIncorrectArgs, "empty list")
				}
				total := 0.
				for _, e := range l {
					if e.Type() != object.INTEGER && e.Type() != object.FLOAT {
						return c.TypeError("element", e, object.INTEGER, object.FLOAT)
					}
					total += object.AsFloat(e)
				}
				return object.Float{Value: total / float64(len(l))}
			},
		},
		{
			Name:     "into int",
			Help:     "converts a number, string, bool or duration (nanoseconds) to an int",
			Callback: intoInt,
		},
		{
			Name:     "into float",
			Help:     "converts a number or string to a float",
			Callback: intoFloat,
		},
		{
			Name: "into string",
			Help: "string rendering of the input",
			Callback: func(c *eval.Call) object.Object {
				return object.String{Value: object.ToString(c.Input)}
			},
		},
	}
}

func sum(c *eval.Call) object.Object {
	l, errObj := inputList(c)
	if errObj != nil {
		return errObj
	}
	if len(l) == 0 {
		return object.Integer{Value: 0}
	}
	var acc object.Object
	for _, e := range l {
		switch e.Type() { //nolint:exhaustive // only numbers and durations can be summed.
		case object.INTEGER, object.FLOAT, object.DURATION:
		default:
			return c.TypeError("element", e, object.INTEGER, object.FLOAT, object.DURATION)
		}
		if acc == nil {
			acc = e
			continue
		}
		acc = add(c, acc, e)
		if acc.Type() == object.ERROR {
			return acc
		}
	}
	return acc
}

func add(c *eval.Call, a, b object.Object) object.Object {
	switch x := a.(type) {
	case object.Integer:
		if y, ok := b.(object.Integer); ok {
			r := x.Value + y.Value
			if (r > x.Value) != (y.Value > 0) {
				return c.Errorf(object.KindOverflow, "integer overflow")
			}
			return object.Integer{Value: r}
		}
		if y, ok := b.(object.Float); ok {
			return object.Float{Value: float64(x.Value) + y.Value}
		}
	case object.Float:
		if b.Type() == object.INTEGER || b.Type() == object.FLOAT {
			return object.Float{Value: x.Value + object.AsFloat(b)}
		}
	case object.Duration:
		if y, ok := b.(object.Duration); ok {
			r := x.Value + y.Value
			if (r > x.Value) != (y.Value > 0) {
				return c.Errorf(object.KindOverflow, "duration overflow")
			}
			return object.Duration{Value: r}
		}
	}
	return c.Errorf(object.KindTypeMismatch, "can't add %s and %s", a.Type(), b.Type())
}

func extremum(c *eval.Call, sign int) object.Object {
	l, errObj := inputList(c)
	if errObj != nil {
		return errObj
	}
	if len(l) == 0 {
		return c.Errorf(object.KindIncorrectArgs, "empty list")
	}
	best := l[0]
	for _, e := range l[1:] {
		cmp, ok := object.Compare(e, best)
		if !ok {
			return c.Errorf(object.KindTypeMismatch, "can't compare %s and %s", e.Type(), best.Type())
		}
		if cmp*sign > 0 {
			best = e
		}
	}
	return best
}

func intoInt(c *eval.Call) object.Object {
	switch v := c.Input.(type) {
	case object.Integer:
		return v
	case object.Boolean:
		if v.Value {
			return object.Integer{Value: 1}
		}
		return object.Integer{Value: 0}
	case object.Duration:
		return object.Integer{Value: int64(v.Value)}
	case object.Float:
		i, err := safecast.Truncate[int64](v.Value)
		if err != nil {
			return c.Errorf(object.KindCantConvert, "%v", err)
		}
		return object.Integer{Value: i}
	case object.String:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Value), 0, 64)
		if err != nil {
			return c.Errorf(object.KindCantConvert, "can't convert %q to int", v.Value)
		}
		return object.Integer{Value: i}
	}
	return c.TypeError("input", c.Input, object.INTEGER, object.FLOAT, object.STRING, object.BOOLEAN, object.DURATION)
}

func intoFloat(c *eval.Call) object.Object {
	switch v := c.Input.(type) {
	case object.Float:
		return v
	case object.Integer:
		return object.Float{Value: float64(v.Value)}
	case object.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return c.Errorf(object.KindCantConvert, "can't convert %q to float", v.Value)
		}
		return object.Float{Value: f}
	}
	return c.TypeError("input", c.Input, object.INTEGER, object.FLOAT, object.STRING)
}

func durationCommands() []eval.Command {
	return []eval.Command{
		{
			Name: "into duration",
			Help: "parses a duration string like 1d3h, 1.5s (also accepts int nanoseconds)",
			Callback: func(c *eval.Call) object.Object {
				switch v := c.Input.(type) {
				case object.Duration:
					return v
				case object.Integer:
					return object.Duration{Value: time.Duration(v.Value)}
				case object.String:
					d, err := duration.Parse(strings.TrimSpace(v.Value))
					if err != nil {
						return c.Errorf(object.KindCantConvert, "%v", err)
					}
					return object.Duration{Value: d}
				}
				return c.TypeError("input", c.Input, object.STRING, object.INTEGER, object.DURATION)
			},
		},
		{
			Name:     "format duration",
			Help:     "formats the input duration, optionally truncated to the argument unit (ms, s, m, h)",
			MaxArgs:  1,
			ArgTypes: []object.Type{object.STRING},
			Callback: func(c *eval.Call) object.Object {
				d, ok := c.Input.(object.Duration)
				if !ok {
					return c.TypeError("input", c.Input, object.DURATION)
				}
				v := d.Value
				if len(c.Args) == 1 {
					unit, found := units[argString(c, 0)]
					if !found {
						return c.Errorf(object.KindIncorrectArgs, "unknown unit %q", argString(c, 0))
					}
					v = v.Truncate(unit)
				}
				return object.String{Value: duration.Duration(v).String()}
			},
		},
	}
}

var units = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
}
