package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/wudi/imagekit/geo"
)

// GojaEngine is the goja-backed Engine. Not safe for concurrent Execute
// calls; run one script at a time.
type GojaEngine struct {
	vm  *goja.Runtime
	ctx context.Context
}

// NewEngine returns a fresh JavaScript engine with no DOM registered.
func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New(), ctx: context.Background()}
}

// Execute runs a script. Cancelling ctx interrupts the script, including
// tight loops that never call back into Go.
func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.ctx = ctx
	defer func() { e.ctx = context.Background() }()

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// RegisterDOM installs the script-visible globals over dom.
func (e *GojaEngine) RegisterDOM(dom EditorDOM) error {
	e.vm.Set("open", func(call goja.FunctionCall) goja.Value {
		e.must(dom.Open(e.argString(call, 0)))
		return goja.Undefined()
	})

	e.vm.Set("save", func(call goja.FunctionCall) goja.Value {
		path, err := dom.Save(e.argString(call, 0))
		e.must(err)
		return e.vm.ToValue(path)
	})

	e.vm.Set("stitch", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			e.must(fmt.Errorf("stitch(y0, y1) needs two arguments"))
		}
		e.must(dom.Stitch(e.argInt(call, 0), e.argInt(call, 1)))
		return goja.Undefined()
	})

	e.vm.Set("fill", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 4 {
			e.must(fmt.Errorf("fill(x0, y0, x1, y1 [, mode]) needs four coordinates"))
		}
		rect := geo.NewRect(e.argInt(call, 0), e.argInt(call, 1), e.argInt(call, 2), e.argInt(call, 3))
		e.must(dom.Fill(e.ctx, rect, e.argString(call, 4)))
		return goja.Undefined()
	})

	e.vm.Set("ocr", func(call goja.FunctionCall) goja.Value {
		langs := make([]string, 0, len(call.Arguments))
		for i := range call.Arguments {
			langs = append(langs, e.argString(call, i))
		}
		text, err := dom.OCR(e.ctx, langs)
		e.must(err)
		return e.vm.ToValue(text)
	})

	e.vm.Set("replaceText", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			e.must(fmt.Errorf("replaceText(old, new) needs two arguments"))
		}
		e.must(dom.ReplaceText(e.ctx, e.argString(call, 0), e.argString(call, 1)))
		return goja.Undefined()
	})

	e.vm.Set("log", func(call goja.FunctionCall) goja.Value {
		dom.Log(e.argString(call, 0))
		return goja.Undefined()
	})

	return nil
}

// must converts a Go error into a thrown JS exception.
func (e *GojaEngine) must(err error) {
	if err != nil {
		panic(e.vm.NewGoError(err))
	}
}

func (e *GojaEngine) argString(call goja.FunctionCall, i int) string {
	if i >= len(call.Arguments) || goja.IsUndefined(call.Arguments[i]) {
		return ""
	}
	return call.Arguments[i].String()
}

func (e *GojaEngine) argInt(call goja.FunctionCall, i int) int {
	if i >= len(call.Arguments) {
		return 0
	}
	return int(call.Arguments[i].ToInteger())
}
