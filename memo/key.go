package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"runtime"
	"sort"
)

// KwArg is a named argument. Pass it to Call or Invalidate with Kw.
type KwArg struct {
	Name  string
	Value any
}

// Kw returns a named argument.
func Kw(name string, value any) KwArg {
	return KwArg{Name: name, Value: value}
}

// Args are the arguments of one call, split into positional and named ones.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// SplitArgs separates KwArg values from positional arguments, keeping the
// positional order.
func SplitArgs(args []any) Args {
	out := Args{
		Positional: make([]any, 0, len(args)),
		Keyword:    make(map[string]any),
	}
	for _, a := range args {
		if kw, ok := a.(KwArg); ok {
			out.Keyword[kw.Name] = kw.Value
			continue
		}
		out.Positional = append(out.Positional, a)
	}
	return out
}

// Named returns the named argument called name.
func (a Args) Named(name string) (any, bool) {
	v, ok := a.Keyword[name]
	return v, ok
}

// KeyFunc derives the cache key for a call of the function identified by
// identity. Returning ok == false (or an empty key) bypasses the cache for
// that call: the computation runs and nothing is read or written.
type KeyFunc func(identity string, args Args) (key string, ok bool)

// DefaultKey is a SHA-256 digest of the function identity followed by the
// type and Go-syntax representation of every positional argument, in order,
// and every named argument, sorted by name. Arguments that render the same
// way produce the same key; pointers render as addresses.
func DefaultKey(identity string, args Args) (string, bool) {
	h := sha256.New()
	fmt.Fprint(h, identity, "(")
	for _, a := range args.Positional {
		fmt.Fprintf(h, "%T:%#v,", a, a)
	}
	fmt.Fprint(h, ")(")
	names := make([]string, 0, len(args.Keyword))
	for name := range args.Keyword {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := args.Keyword[name]
		fmt.Fprintf(h, "%s=%T:%#v,", name, v, v)
	}
	fmt.Fprint(h, ")")
	return hex.EncodeToString(h.Sum(nil)), true
}

// deriveKey applies keyFunc and prefix. The bool is false when the call must
// bypass the cache.
func deriveKey(keyFunc KeyFunc, prefix, identity string, args []any) (string, bool) {
	key, ok := keyFunc(identity, SplitArgs(args))
	if !ok || key == "" {
		return "", false
	}
	return prefix + key, true
}

// funcName returns the fully qualified symbol name of fn.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() == reflect.Func && !v.IsNil() {
		if f := runtime.FuncForPC(v.Pointer()); f != nil {
			return f.Name()
		}
	}
	return fmt.Sprintf("%T", fn)
}
