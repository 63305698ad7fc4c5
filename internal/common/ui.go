package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Interactive reports whether stdin is attached to a terminal.
// Prompting helpers are only useful when it is.
func Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Header prints a section header
func Header(title string) {
	fmt.Println("========================================")
	bold.Println(title)
	fmt.Println("========================================")
	fmt.Println()
}

// Success prints a success message
func Success(msg string) {
	green.Printf("✓ %s\n", msg)
}

// Error prints an error message
func Error(msg string) {
	red.Printf("✗ %s\n", msg)
}

// Warning prints a warning message
func Warning(msg string) {
	yellow.Printf("⚠ %s\n", msg)
}

// Info prints an info message
func Info(msg string) {
	cyan.Printf("→ %s\n", msg)
}

// Prompt asks for user input with a default value
func Prompt(question, defaultVal string) string {
	reader := bufio.NewReader(os.Stdin)
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	input, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return defaultVal
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// getConfirmPrompt returns the appropriate prompt string
func getConfirmPrompt(defaultYes bool) string {
	if defaultYes {
		return "[Y/n]"
	}
	return "[y/N]"
}

// parseConfirmInput parses the user input for confirmation
func parseConfirmInput(input string, defaultYes bool) bool {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

// Confirm asks for yes/no confirmation
func Confirm(question string, defaultYes bool) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s %s: ", question, getConfirmPrompt(defaultYes))
	input, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return defaultYes
	}
	return parseConfirmInput(input, defaultYes)
}
