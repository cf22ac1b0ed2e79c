// Package slidescript evaluates per-slide Go scripts with yaegi. A script can
// intercept navigation intents and restore its own visual state:
//
//	package main
//
//	var shown int
//
//	func OnNext(ctx map[string]any) bool { shown++; return shown <= 2 }
//	func OnPrevious(ctx map[string]any) bool { return false }
//	func Reset() { shown = 0 }
//
// Every page load gets a fresh interpreter, so script globals never survive
// navigation.
package slidescript

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/kingrea/deckhand/internal/navigation"
)

const (
	onNextFuncName     = "OnNext"
	onPreviousFuncName = "OnPrevious"
	resetFuncName      = "Reset"
)

// ErrNoHandlers indicates a script that defines neither OnNext nor OnPrevious.
var ErrNoHandlers = errors.New("slidescript: script defines no OnNext or OnPrevious")

// ContextFunc supplies the map handed to script predicates.
type ContextFunc func() map[string]any

// Logger receives script failures.
type Logger interface {
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// Script is a loaded slide script.
type Script struct {
	path       string
	onNext     reflect.Value
	onPrevious reflect.Value
	reset      reflect.Value
	logger     Logger
}

// Load interprets the file at path.
func Load(path string, logger Logger) (*Script, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slidescript: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("slidescript: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("slidescript: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("slidescript: interpret %s: %w", path, err)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	s := &Script{path: path, logger: logger}
	s.onNext = lookupFunc(i, onNextFuncName)
	s.onPrevious = lookupFunc(i, onPreviousFuncName)
	s.reset = lookupFunc(i, resetFuncName)
	if !s.onNext.IsValid() && !s.onPrevious.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrNoHandlers, path)
	}
	return s, nil
}

func lookupFunc(i *interp.Interpreter, name string) reflect.Value {
	v, err := i.Eval(name)
	if err != nil || !v.IsValid() || v.Kind() != reflect.Func {
		return reflect.Value{}
	}
	return v
}

// Path returns the script file.
func (s *Script) Path() string {
	return s.path
}

// Handlers adapts the script predicates to the navigation contract.
func (s *Script) Handlers(ctx ContextFunc) navigation.Handlers {
	var h navigation.Handlers
	if s.onNext.IsValid() {
		h.OnNext = func() bool { return s.call(s.onNext, onNextFuncName, ctx) }
	}
	if s.onPrevious.IsValid() {
		h.OnPrevious = func() bool { return s.call(s.onPrevious, onPreviousFuncName, ctx) }
	}
	return h
}

// ResetSlideState calls the script's Reset function when it has one.
func (s *Script) ResetSlideState() {
	if s == nil || !s.reset.IsValid() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("slidescript: %s Reset panicked: %v", s.path, r)
		}
	}()
	if s.reset.Type().NumIn() != 0 {
		s.logger.Warn("slidescript: %s Reset must take no arguments", s.path)
		return
	}
	s.reset.Call(nil)
}

// call invokes a predicate. Wrong signatures and panics count as "not handled".
func (s *Script) call(fn reflect.Value, name string, ctx ContextFunc) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("slidescript: %s %s panicked: %v", s.path, name, r)
			handled = false
		}
	}()
	t := fn.Type()
	var args []reflect.Value
	switch t.NumIn() {
	case 0:
	case 1:
		values := map[string]any{}
		if ctx != nil {
			if c := ctx(); c != nil {
				values = c
			}
		}
		arg := reflect.ValueOf(values)
		if !arg.Type().AssignableTo(t.In(0)) {
			s.logger.Warn("slidescript: %s %s must accept map[string]any", s.path, name)
			return false
		}
		args = []reflect.Value{arg}
	default:
		s.logger.Warn("slidescript: %s %s takes too many arguments", s.path, name)
		return false
	}
	results := fn.Call(args)
	if len(results) != 1 || results[0].Kind() != reflect.Bool {
		s.logger.Warn("slidescript: %s %s must return bool", s.path, name)
		return false
	}
	return results[0].Bool()
}
