package main

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

var barTheme = progressbar.Theme{
	Saucer:        "=",
	SaucerHead:    ">",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

func progressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// fileProgress is a counting bar over a known number of files. A nil
// *fileProgress is a no-op.
type fileProgress struct {
	bar *progressbar.ProgressBar
}

func newFileProgress(total int) *fileProgress {
	if total <= 0 || !progressEnabled() {
		return nil
	}
	return &fileProgress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(barTheme),
	)}
}

func (p *fileProgress) Increment() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *fileProgress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// startSpinner shows desc with a spinner until the returned func is called.
func startSpinner(desc string) func() {
	if !progressEnabled() {
		return func() {}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(9),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(10),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(barTheme),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = bar.Add(1)
			case <-done:
				_ = bar.Finish()
				return
			}
		}
	}()
	return func() { close(done) }
}
