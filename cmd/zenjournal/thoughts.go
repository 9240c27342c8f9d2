package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"zenjournal/internal/journal"
	"zenjournal/internal/kv"
)

// previewSize matches the home screen: the three most recent thoughts.
const previewSize = 3

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add [text...]",
		Short: "Release a thought (reads a line from stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				fmt.Fprint(cmd.ErrOrStderr(), "What's on your mind? ")
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = line
			}
			j, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			th, res, err := j.Add(cmd.Context(), text)
			if errors.Is(err, journal.ErrBlankThought) {
				return errors.New("nothing to release: type a thought first")
			}
			if err != nil {
				return err
			}
			warn(cmd, res)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Released #%s\n", th.ID)
			fmt.Fprintf(out, "%s offloaded\n", plural(j.ThoughtsReleased(), "thought"))
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"archive"},
		Short:   "Show released thoughts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			thoughts := j.LoadAll()
			if limit > 0 {
				thoughts = j.Recent(limit)
			}
			out := cmd.OutOrStdout()
			if len(thoughts) == 0 {
				fmt.Fprintln(out, "No thoughts yet. Release one with `zenjournal add`.")
				return nil
			}
			printThoughts(out, thoughts, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N thoughts (0 for all)")
	return cmd
}

func newRecentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "Show the latest thoughts and the lifetime count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if recent := j.Recent(previewSize); len(recent) > 0 {
				printThoughts(out, recent, time.Now())
			}
			fmt.Fprintf(out, "%s offloaded\n", plural(j.ThoughtsReleased(), "thought"))
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the text of a thought",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			th, res, err := j.Update(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if errors.Is(err, journal.ErrNotFound) {
				return fmt.Errorf("no thought with id %s", args[0])
			}
			if err != nil {
				return err
			}
			warn(cmd, res)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%s\n", th.ID)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a thought",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			res, err := j.Remove(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			if errors.Is(err, journal.ErrNotFound) {
				fmt.Fprintf(out, "Nothing to delete: #%s is already gone\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			warn(cmd, res)
			fmt.Fprintf(out, "Deleted #%s\n", args[0])
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := a.journal(cmd.Context())
			if err != nil {
				return err
			}
			sessions, err := a.history().Total(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Thoughts released:      %d\n", j.ThoughtsReleased())
			fmt.Fprintf(out, "Thoughts kept:          %d\n", len(j.LoadAll()))
			fmt.Fprintf(out, "Zen sessions completed: %d\n", sessions)
			return nil
		},
	}
}

func printThoughts(w io.Writer, thoughts []journal.Thought, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, th := range thoughts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", th.ID, th.Age(now), oneLine(th.Text))
	}
	_ = tw.Flush()
}

// warn reports writes that did not reach storage. The command still succeeds.
func warn(cmd *cobra.Command, res kv.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: not saved (%v)\n", w)
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read thought: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
