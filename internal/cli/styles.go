// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/fatih/color"
)

// Output colors for line-oriented commands. color.NoColor turns them all
// off, which --no-color and non-terminal output do.
var (
	headingColor = color.New(color.FgCyan, color.Bold)
	keyColor     = color.New(color.FgBlue)
	valueColor   = color.New(color.FgGreen)
	commentColor = color.New(color.FgHiBlack)
	errorColor   = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
	dimColor     = color.New(color.Faint)
	promptColor  = color.New(color.FgMagenta, color.Bold)
)

// disableColor turns off fatih/color output globally.
func disableColor() {
	color.NoColor = true
}
