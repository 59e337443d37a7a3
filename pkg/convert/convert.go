// Package convert bridges textual port values and typed Go values.
//
// Text is the lingua franca of tree documents: every literal written in a
// document reaches a node as a string and is converted on demand to the type
// the node asks for. Sequences are encoded as ";"-separated elements with no
// escaping.
package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Separator delimits sequence elements.
const Separator = ";"

var (
	mu      sync.RWMutex
	parsers = map[reflect.Type]func(string) (any, error){}

	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func init() {
	Register(time.ParseDuration)
}

// Register installs a parser for T, overriding the reflective default.
// Sequences of T use it for every element.
func Register[T any](fn func(string) (T, error)) {
	mu.Lock()
	defer mu.Unlock()
	parsers[reflect.TypeFor[T]()] = func(s string) (any, error) { return fn(s) }
}

func lookup(t reflect.Type) (func(string) (any, error), bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := parsers[t]
	return fn, ok
}

// FromText parses text into a T.
func FromText[T any](text string) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	v, err := parse(t, text)
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// Convert adapts a stored value to T. A value that already is a T is returned
// as is, a string is parsed with FromText, anything else is a type mismatch.
func Convert[T any](v any) (T, error) {
	if out, ok := v.(T); ok {
		return out, nil
	}
	if s, ok := v.(string); ok {
		return FromText[T](s)
	}
	var zero T
	return zero, fmt.Errorf("%w: have %T, want %s", domain.ErrTypeMismatch, v, reflect.TypeFor[T]())
}

func fail(text string, t reflect.Type, cause error) error {
	return &domain.ConversionError{Text: text, Target: t.String(), Cause: cause}
}

func parse(t reflect.Type, text string) (reflect.Value, error) {
	if fn, ok := lookup(t); ok {
		out, err := fn(text)
		if err != nil {
			return reflect.Value{}, fail(text, t, err)
		}
		return reflect.ValueOf(out), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, fail(text, t, err)
		}
		return ptr.Elem(), nil
	}

	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(text).Convert(t), nil

	case reflect.Bool:
		var b bool
		switch text {
		case "1", "true", "TRUE":
			b = true
		case "0", "false", "FALSE":
		default:
			return reflect.Value{}, fail(text, t, domain.ErrNoMatch)
		}
		return reflect.ValueOf(b).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fail(text, t, numErr(err))
		}
		v := reflect.New(t).Elem()
		v.SetInt(n)
		return v, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fail(text, t, numErr(err))
		}
		v := reflect.New(t).Elem()
		v.SetUint(n)
		return v, nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return reflect.Value{}, fail(text, t, numErr(err))
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v, nil

	case reflect.Slice:
		if text == "" {
			return reflect.MakeSlice(t, 0, 0), nil
		}
		parts := strings.Split(text, Separator)
		out := reflect.MakeSlice(t, len(parts), len(parts))
		for i, p := range parts {
			ev, err := parse(t.Elem(), p)
			if err != nil {
				return reflect.Value{}, fail(text, t, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Interface:
		if t.NumMethod() == 0 {
			v := reflect.New(t).Elem()
			v.Set(reflect.ValueOf(text))
			return v, nil
		}
	}

	return reflect.Value{}, fail(text, t, fmt.Errorf("%w: no text conversion for %s", domain.ErrTypeMismatch, t))
}

func numErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

// ToText renders v in the form FromText accepts.
func ToText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Duration:
		return x.String()
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err == nil {
			return string(b)
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = ToText(rv.Index(i).Interface())
		}
		return strings.Join(parts, Separator)
	}
	return fmt.Sprint(v)
}
