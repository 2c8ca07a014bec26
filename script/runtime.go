package script

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/animgraph/anim"
)

var ErrUnknownFunction = errors.New("script: unknown function")

// Host receives the side effects a script function asks for.
type Host interface {
	PlayVoice(group string)
	Footstep(side anim.FootSide)
	Emit(name string, arg any)
	Logf(format string, args ...any)
}

// Runtime runs the functions map of one compiled tengo script.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	funcs    []string
}

const dispatchScript = `
__result := undefined
if __fn != "" {
	__f := functions[__fn]
	if is_callable(__f) {
		__result = __f(__engine, __arg)
	} else {
		__result = error("unknown function")
	}
}
`

// Compile builds a runtime from script source. The script must define a
// `functions` map of func(engine, arg).
func Compile(name string, src []byte) (*Runtime, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__fn", "")
	_ = s.Add("__arg", 0)
	_ = s.Add("__engine", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	rt := &Runtime{name: name, compiled: compiled}

	// A no-op run evaluates the top level so the functions map can be read.
	if err := rt.run("", 0, &tengo.ImmutableMap{Value: map[string]tengo.Object{}}); err != nil {
		return nil, fmt.Errorf("script: init %s: %w", name, err)
	}
	if compiled.IsDefined("functions") {
		for k := range compiled.Get("functions").Map() {
			rt.funcs = append(rt.funcs, k)
		}
		sort.Strings(rt.funcs)
	}
	return rt, nil
}

func (rt *Runtime) Name() string { return rt.name }

// Functions lists the names defined in the script's functions map.
func (rt *Runtime) Functions() []string {
	return append([]string(nil), rt.funcs...)
}

func (rt *Runtime) Has(fn string) bool {
	i := sort.SearchStrings(rt.funcs, fn)
	return i < len(rt.funcs) && rt.funcs[i] == fn
}

// Call runs fn with arg. Script errors, including an error value returned
// by the function, come back as Go errors.
func (rt *Runtime) Call(fn string, arg int, host Host) error {
	if rt == nil || rt.compiled == nil {
		return fmt.Errorf("script: nil runtime")
	}
	if !rt.Has(fn) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownFunction, rt.name, fn)
	}
	if err := rt.run(fn, arg, buildEngine(host)); err != nil {
		return fmt.Errorf("script: %s.%s: %w", rt.name, fn, err)
	}
	if err := rt.compiled.Get("__result").Error(); err != nil {
		return fmt.Errorf("script: %s.%s: %w", rt.name, fn, err)
	}
	return nil
}

func (rt *Runtime) run(fn string, arg int, engine *tengo.ImmutableMap) error {
	if err := rt.compiled.Set("__fn", fn); err != nil {
		return err
	}
	if err := rt.compiled.Set("__arg", arg); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	return rt.compiled.Run()
}

func buildEngine(host Host) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["voice"] = &tengo.UserFunction{Name: "voice", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if host == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		group := strings.TrimSpace(objectAsString(args[0]))
		if group == "" {
			return tengo.FalseValue, nil
		}
		host.PlayVoice(group)
		return tengo.TrueValue, nil
	}}

	values["footstep"] = &tengo.UserFunction{Name: "footstep", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if host == nil {
			return tengo.FalseValue, nil
		}
		side := anim.FootLeft
		if len(args) > 0 && strings.EqualFold(objectAsString(args[0]), "right") {
			side = anim.FootRight
		}
		host.Footstep(side)
		return tengo.TrueValue, nil
	}}

	values["emit"] = &tengo.UserFunction{Name: "emit", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if host == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		var arg any
		if len(args) > 1 {
			arg = objectToAny(args[1])
		}
		host.Emit(name, arg)
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if host == nil {
			return tengo.UndefinedValue, nil
		}
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		host.Logf("script: %s", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
