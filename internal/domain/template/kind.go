package template

import "strings"

// Kind is a starter project type.
type Kind string

const (
	React   Kind = "REACT"
	Vue     Kind = "VUE"
	Angular Kind = "ANGULAR"
	Express Kind = "EXPRESS"
	NextJS  Kind = "NEXTJS"
	Hono    Kind = "HONO"
)

// Fallback is used wherever a kind is unknown.
const Fallback = React

// Kinds lists every known kind in display order.
func Kinds() []Kind {
	return []Kind{React, NextJS, Express, Vue, Hono, Angular}
}

// ParseKind matches s case-insensitively against the known kinds.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case React, Vue, Angular, Express, NextJS, Hono:
		return k, true
	}
	return "", false
}

// KindOrFallback parses s, falling back to React.
func KindOrFallback(s string) Kind {
	if k, ok := ParseKind(s); ok {
		return k
	}
	return Fallback
}

// Known reports whether k is one of the defined kinds.
func (k Kind) Known() bool {
	_, ok := ParseKind(string(k))
	return ok
}

// Resolve returns k, or Fallback when k is unknown.
func (k Kind) Resolve() Kind {
	return KindOrFallback(string(k))
}

func (k Kind) String() string { return string(k) }
