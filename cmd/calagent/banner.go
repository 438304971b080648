package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const banner = `
  +---------------------------------------+
  |  .---.---.---.---.---.---.---.        |
  |  | M | T | W | T | F | S | S |        |
  |  '---'---'---'---'---'---'---'        |
  |         Google Calendar Agent         |
  +---------------------------------------+
`

// printWelcome shows the banner when stdout is a terminal, then the menu hint.
func printWelcome(w io.Writer, zone string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(w, banner)
	}
	fmt.Fprintf(w, "Welcome to the Google Calendar Agent (timezone %s).\n", zone)
	fmt.Fprintln(w, "Type list, busy, today, ai or exit.")
}
