package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cmdbar/internal/command"
	"cmdbar/internal/store"

	"github.com/spf13/cobra"
)

// runCmd parses and executes one command-bar line
var runCmd = &cobra.Command{
	Use:   "run [line...]",
	Short: "Run a command-bar line",
	Long: `Parses the line as if typed on --from by --as and executes it.

Commands that affect more than one item wait for confirmation: the
confirmation is printed and nothing changes until the line is run again
with --confirm.

Examples:
  cmdbar run --from /items/2 /assign kevin
  cmdbar run --from '/items?tag_ids[]=design' --confirm /close
  cmdbar run "assign jz to the current #design items and tag them with #v2"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLine,
}

// parseCmd shows what a line would do
var parseCmd = &cobra.Command{
	Use:   "parse [line...]",
	Short: "Show the commands a line resolves to without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  parseLine,
}

// translateCmd shows the raw translation of a query
var translateCmd = &cobra.Command{
	Use:   "translate [query...]",
	Short: "Translate a natural-language query into filters and commands",
	Args:  cobra.MinimumNArgs(1),
	RunE:  translateQuery,
}

func runLine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	line := strings.Join(args, " ")

	s, err := openSession(cfg, actorID)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline, err := s.pipeline(ctx)
	if err != nil {
		return err
	}
	c, err := pipeline.Parse(ctx, line, s.view(fromURL))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if c == nil {
		fmt.Fprintln(out, mutedStyle.Render("Nothing to do for "+line))
		return nil
	}

	history, err := store.OpenHistory(cfg.Store.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	outcome, err := command.NewExecutor(s.world, history).Run(ctx, c, confirm)
	if err != nil {
		return err
	}
	if !outcome.Pending {
		if err := s.save(); err != nil {
			return err
		}
	}
	printOutcome(out, outcome)
	return nil
}

func printOutcome(out io.Writer, o command.Outcome) {
	if o.Pending {
		fmt.Fprintln(out, warnStyle.Render(o.Confirmation+"?"))
		fmt.Fprintln(out, mutedStyle.Render("Run again with --confirm to proceed."))
	} else if o.Message != "" {
		fmt.Fprintln(out, successStyle.Render(o.Message))
	}
	if o.Redirect != "" {
		fmt.Fprintln(out, redirectStyle.Render("-> "+o.Redirect))
	}
}

func parseLine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	line := strings.Join(args, " ")

	s, err := openSession(cfg, actorID)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline, err := s.pipeline(ctx)
	if err != nil {
		return err
	}
	c, err := pipeline.Parse(ctx, line, s.view(fromURL))
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No command"))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTree(command.Describe(c), 0))
	return nil
}

// renderTree prints one node per line, children indented under their parent.
func renderTree(n command.Node, depth int) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(kindStyle.Render(string(n.Kind)))
	sb.WriteString(" " + n.Title)
	if len(n.Items) > 0 {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf(" items=%v", n.Items)))
	}
	if n.Confirm {
		sb.WriteString(warnStyle.Render(" (needs confirmation)"))
	}
	sb.WriteString("\n")
	for _, child := range n.Children {
		sb.WriteString(renderTree(child, depth+1))
	}
	return sb.String()
}

func translateQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	query := strings.Join(args, " ")

	s, err := openSession(cfg, actorID)
	if err != nil {
		return err
	}
	defer s.Close()

	tr, err := s.translator(ctx)
	if err != nil {
		return err
	}
	if tr == nil {
		return fmt.Errorf("translate needs an API key for %s", cfg.LLM.Provider)
	}
	translation, err := tr.Translate(ctx, query, s.view(fromURL))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), translation.JSON())
	return nil
}
