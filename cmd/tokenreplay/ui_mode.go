package main

import (
	"os"

	"golang.org/x/term"

	"github.com/example/tokenreplay/internal/config"
)

func shouldUseTUI(mode string) bool {
	switch mode {
	case config.UIOn:
		return true
	case config.UIOff:
		return false
	default:
		return isTerminal(os.Stdout) && isTerminal(os.Stdin)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
