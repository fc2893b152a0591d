// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package interpreter runs Starlark scripts.
package interpreter

import (
	"context"
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ErrNoModule is returned by loaders when the requested module is not found.
var ErrNoModule = errors.New("no such module")

// Loader returns the source of the module at path.
type Loader func(path string) (src string, err error)

// Interpreter executes Starlark files.
type Interpreter struct {
	// Predeclared are the global names visible to every module.
	Predeclared starlark.StringDict
	// Loader resolves the script itself and the modules it loads.
	Loader Loader
	// Logger receives messages printed with print.
	Logger func(file string, line int, message string)
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

const contextKey = "context"

// Context returns the context of the Exec call running thread.
func Context(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// Exec runs the module at path and returns its globals. The script is
// cancelled when ctx is done.
func (i *Interpreter) Exec(ctx context.Context, path string) (starlark.StringDict, error) {
	if i.Loader == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoModule)
	}

	type entry struct {
		globals starlark.StringDict
		err     error
	}
	// A nil entry marks a module that is still being executed.
	cache := make(map[string]*entry)

	exec := func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
		if e, ok := cache[module]; ok {
			if e == nil {
				return nil, fmt.Errorf("cycle in load graph at %q", module)
			}
			return e.globals, e.err
		}
		cache[module] = nil

		src, err := i.Loader(module)
		if err != nil {
			err = fmt.Errorf("%s: %w", module, err)
			cache[module] = &entry{err: err}
			return nil, err
		}
		globals, err := starlark.ExecFileOptions(fileOptions, thread, module, src, i.Predeclared)
		cache[module] = &entry{globals: globals, err: err}
		return globals, err
	}

	thread := &starlark.Thread{
		Name: path,
		Load: exec,
		Print: func(thread *starlark.Thread, msg string) {
			if i.Logger == nil {
				return
			}
			pos := thread.CallFrame(1).Pos
			i.Logger(pos.Filename(), int(pos.Line), msg)
		},
	}
	thread.SetLocal(contextKey, ctx)

	stop := context.AfterFunc(ctx, func() { thread.Cancel(context.Cause(ctx).Error()) })
	defer stop()

	globals, err := exec(thread, path)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return nil, errors.New(evalErr.Backtrace())
		}
		return nil, err
	}
	return globals, nil
}
