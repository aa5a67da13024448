package token

import "fortio.org/sets"

// Info enables introspection of known keywords and operator tokens (used by highlighting).
type LangInfo struct {
	Keywords sets.Set[string]
	Tokens   sets.Set[string]
}

var info = LangInfo{
	Keywords: sets.New[string](),
	Tokens:   sets.New[string](),
}

func Info() LangInfo {
	return info
}
