package release

import (
	"fmt"
	"io"
	"log/slog"
)

type handler struct {
	fn      func() error
	execute bool
	msg     string
}

// Executor 依序執行發布步驟，dry-run 時只顯示訊息
type Executor struct {
	out      io.Writer
	dryRun   bool
	handlers []handler
}

func NewExecutor(out io.Writer, dryRun bool) *Executor {
	return &Executor{out: out, dryRun: dryRun}
}

func (e *Executor) Add(fn func() error, execute bool, msg string) {
	e.handlers = append(e.handlers, handler{fn: fn, execute: execute, msg: msg})
}

// Run 遇到第一個錯誤就停止，已完成的步驟不會復原
func (e *Executor) Run() error {
	for _, h := range e.handlers {
		if !h.execute {
			slog.Debug("step skipped", "step", h.msg)
			continue
		}

		fmt.Fprintln(e.out, h.msg)
		if e.dryRun {
			continue
		}

		if err := h.fn(); err != nil {
			return err
		}
	}
	return nil
}
