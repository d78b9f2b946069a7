package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6"))

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))
)

func init() {
	// Plain output when not writing to a terminal
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		plain := lipgloss.NewStyle()
		titleStyle = plain
		labelStyle = plain
		valueStyle = plain
		successStyle = plain
		errorStyle = plain
	}
}

func printTitle(title string) {
	fprintTitle(os.Stdout, title)
}

func printStat(label string, value any) {
	fprintStat(os.Stdout, label, value)
}

func fprintTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func fprintStat(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(fmt.Sprint(value)))
}

func printSuccess(message string) {
	fmt.Println(successStyle.Render("✓ " + message))
}

func logf(format string, args ...any) {
	log.Printf(format, args...)
}

func debugf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}
