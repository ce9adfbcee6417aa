package config

import (
	"fmt"
	"strings"
)

const (
	UIAuto = "auto"
	UIOn   = "on"
	UIOff  = "off"
)

func NormalizeUIMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "":
		return UIAuto, nil
	case UIAuto, UIOn, UIOff:
		return mode, nil
	case "tui", "true":
		return UIOn, nil
	case "plain", "false":
		return UIOff, nil
	default:
		return "", fmt.Errorf("invalid ui mode %q (expected %s|%s|%s)", raw, UIAuto, UIOn, UIOff)
	}
}
