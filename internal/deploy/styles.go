/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"os"
	"strings"

	"charm.land/lipgloss/v2"
)

// Styles contains the styles for rendering deployment output
type Styles struct {
	// Changeset action styles
	Added    lipgloss.Style
	Removed  lipgloss.Style
	Modified lipgloss.Style

	// Event status styles
	Success  lipgloss.Style
	Progress lipgloss.Style
	Error    lipgloss.Style

	// Content styles
	Header lipgloss.Style
	Key    lipgloss.Style
	Subtle lipgloss.Style
	Bold   lipgloss.Style

	// Whether colours are enabled
	UseColour bool
}

// Colours are optimised based on terminal background (dark vs light).
func NewStyles(useColour bool) *Styles {
	s := &Styles{UseColour: useColour}

	if !useColour {
		// Plain mode - empty styles pass text through unchanged
		plainStyle := lipgloss.NewStyle()

		s.Added = plainStyle
		s.Removed = plainStyle
		s.Modified = plainStyle
		s.Success = plainStyle
		s.Progress = plainStyle
		s.Error = plainStyle
		s.Header = plainStyle
		s.Key = plainStyle
		s.Subtle = plainStyle
		s.Bold = plainStyle.Bold(true)
		return s
	}

	// Detect terminal background and select appropriate colours
	hasDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)

	var (
		headerText  string
		successText string
		warningText string
		errorText   string
		keyText     string
		subtleText  string
	)

	if hasDark {
		// Dark background colours - optimised for readability on dark terminals
		headerText = "12"  // Bright Blue
		successText = "10" // Green
		warningText = "11" // Yellow
		errorText = "9"    // Red
		keyText = "14"     // Cyan
		subtleText = "8"   // Dark Grey
	} else {
		// Light background colours - optimised for readability on light terminals
		headerText = "4"  // Blue
		successText = "2" // Green
		warningText = "3" // Yellow/Brown
		errorText = "1"   // Red
		keyText = "6"     // Cyan
		subtleText = "8"  // Grey
	}

	// Changeset action colours - explicit ANSI colours for diff consistency
	s.Added = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")) // ANSI Green for additions

	s.Removed = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")) // ANSI Red for removals

	s.Modified = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")) // ANSI Yellow for modifications

	// Event status colours
	s.Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color(successText))

	s.Progress = lipgloss.NewStyle().
		Foreground(lipgloss.Color(warningText))

	s.Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color(errorText)).
		Bold(true)

	// Content styles
	s.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(headerText))

	s.Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color(keyText))

	s.Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(subtleText))

	s.Bold = lipgloss.NewStyle().Bold(true)

	return s
}

// StatusStyle picks the style for a stack event status: failures and
// rollbacks red, anything still running yellow, terminal success green.
func (s *Styles) StatusStyle(status string) lipgloss.Style {
	switch {
	case strings.Contains(status, "FAILED") || strings.Contains(status, "ROLLBACK"):
		return s.Error
	case strings.Contains(status, "IN_PROGRESS"):
		return s.Progress
	default:
		return s.Success
	}
}

// ActionStyle picks the style for a changeset action
func (s *Styles) ActionStyle(action string) lipgloss.Style {
	switch action {
	case "Add":
		return s.Added
	case "Modify":
		return s.Modified
	case "Remove":
		return s.Removed
	default:
		return s.Bold
	}
}

// ShouldUseColour determines if colour output should be used
func ShouldUseColour() bool {
	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check TERM environment variable
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	// Check if stdout is a terminal
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}

	// Check if it's a character device (terminal)
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
