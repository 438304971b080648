package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pearcec/calagent/internal/agent"
	"github.com/pearcec/calagent/internal/normalize"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive calendar menu",
	Long: `Start an interactive session. Commands:
  list    List upcoming events
  busy    Check free/busy status
  today   List today's events
  ai      Ask AI about your calendar
  exit    Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), true, out)
	if err != nil {
		return err
	}
	defer a.Close()

	s := &session{
		svc: a.svc,
		in:  bufio.NewScanner(cmd.InOrStdin()),
		out: out,
		now: time.Now,
	}
	printWelcome(out, a.svc.DefaultZone())
	return s.loop(cmd.Context())
}

// session is one interactive menu run.
type session struct {
	svc *agent.Service
	in  *bufio.Scanner
	out io.Writer
	now func() time.Time
}

var menuChoices = []string{"list", "busy", "today", "ai", "exit"}

// loop reads commands until exit or end of input.
func (s *session) loop(ctx context.Context) error {
	for {
		fmt.Fprintln(s.out)
		choice, ok := s.prompt("Enter command ["+strings.Join(menuChoices, "/")+"]", "")
		if !ok {
			fmt.Fprintln(s.out, "Goodbye!")
			return s.in.Err()
		}

		switch strings.ToLower(choice) {
		case "exit", "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		case "list":
			s.list(ctx)
		case "busy":
			s.busy(ctx)
		case "today":
			s.today(ctx)
		case "ai":
			s.ai(ctx)
		default:
			fmt.Fprintf(s.out, "Please select one of: %s\n", strings.Join(menuChoices, ", "))
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// prompt asks a question and returns the trimmed answer, or def when the
// answer is empty. ok is false once input is exhausted.
func (s *session) prompt(question, def string) (string, bool) {
	if def != "" {
		fmt.Fprintf(s.out, "%s (%s): ", question, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", question)
	}
	if !s.in.Scan() {
		return "", false
	}
	answer := strings.TrimSpace(s.in.Text())
	if answer == "" {
		return def, true
	}
	return answer, true
}

func (s *session) fail(err error) {
	fmt.Fprintf(s.out, "An error occurred: %v\n", err)
}

func (s *session) list(ctx context.Context) {
	answer, ok := s.prompt("Number of events to show", strconv.Itoa(agent.DefaultMaxResults))
	if !ok {
		return
	}
	limit, err := strconv.Atoi(answer)
	if err != nil || limit <= 0 {
		limit = agent.DefaultMaxResults
	}

	events, err := s.svc.Upcoming(ctx, limit, "")
	if err != nil {
		s.fail(err)
		return
	}
	printEvents(s.out, events)
}

func (s *session) busy(ctx context.Context) {
	loc, err := normalize.LoadZone(s.svc.DefaultZone())
	if err != nil {
		s.fail(err)
		return
	}
	today := s.now().In(loc)

	fmt.Fprintln(s.out, "Check free/busy status:")
	start, ok := s.prompt("Start date (YYYY-MM-DD)", today.Format(dateLayout))
	if !ok {
		return
	}
	end, ok := s.prompt("End date (YYYY-MM-DD)", today.AddDate(0, 0, 30).Format(dateLayout))
	if !ok {
		return
	}

	report, err := s.svc.FreeBusy(ctx, start, end, "")
	if errors.Is(err, agent.ErrInvalidDate) {
		fmt.Fprintln(s.out, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	if err != nil {
		s.fail(err)
		return
	}
	printBusy(s.out, report)
}

func (s *session) today(ctx context.Context) {
	result, err := s.svc.Today(ctx, "")
	if err != nil {
		s.fail(err)
		return
	}
	printToday(s.out, result)
}

func (s *session) ai(ctx context.Context) {
	fmt.Fprintln(s.out, "AI Calendar Analysis:")
	question, ok := s.prompt("What would you like to know about your calendar?", "")
	if !ok || question == "" {
		return
	}

	fmt.Fprintln(s.out, "Fetching calendar data and analyzing...")
	answer, err := s.svc.Ask(ctx, question, "")
	switch {
	case errors.Is(err, agent.ErrNoCalendarData):
		fmt.Fprintln(s.out, "No calendar data found to analyze.")
	case err != nil:
		s.fail(err)
	default:
		fmt.Fprintln(s.out, "\nAI Analysis:")
		fmt.Fprintln(s.out, strings.TrimSpace(answer.Response))
	}
}
