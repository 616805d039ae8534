package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"takeoutfix/internal/workflow"
)

// progressHooks wires a terminal progress bar into workflow options. Nothing
// is drawn when w is not a terminal.
type progressHooks struct {
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
}

func newProgressHooks(w io.Writer, description string) *progressHooks {
	return &progressHooks{w: w, description: description}
}

func (p *progressHooks) attach(opts *workflow.Options) {
	if !isTerminal(p.w) {
		return
	}
	opts.OnBatch = func(total int) {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(p.description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	opts.OnResult = func(workflow.Result) {
		if p.bar != nil {
			_ = p.bar.Add(1)
		}
	}
}

func (p *progressHooks) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
