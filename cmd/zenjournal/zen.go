package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"zenjournal/internal/zen"
)

type phaseText struct {
	label string
	hint  string
}

var phaseTexts = map[zen.Phase]phaseText{
	zen.PhaseInhale:  {"BREATHE IN...", "FILLING YOUR LUNGS SLOWLY"},
	zen.PhaseHoldIn:  {"HOLD...", "KEEPING IT IN"},
	zen.PhaseExhale:  {"BREATHE OUT...", "RELEASING SLOWLY"},
	zen.PhaseHoldOut: {"HOLD...", "EMPTY YOUR LUNGS"},
}

func newZenCmd(a *app) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "zen",
		Short: "Run a guided box-breathing session",
		Long: `Guides you through box breathing until you press Ctrl+C or --duration
elapses. Three full cycles (36 seconds) count as a completed session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			engine := zen.NewEngine(zen.WithLogger(a.logger), zen.WithMetrics(a.recorder))
			events, err := engine.Start(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Complete %d cycles (%s) to finish a session. Ctrl+C to stop.\n",
				zen.CompletionThreshold, zen.CompletionThreshold*zen.CycleDuration)
			breathe(events, duration, out)
			res := engine.Stop()

			// The session may have ended because ctx was cancelled; crediting it
			// must still reach storage.
			completion, kres, err := a.history().Finalize(context.WithoutCancel(ctx), res)
			if err != nil {
				return err
			}
			warn(cmd, kres)
			fmt.Fprintf(out, "\n%s completed.\n", plural(res.CyclesCompleted, "cycle"))
			if completion.CreditedAsComplete {
				fmt.Fprintf(out, "Session complete. Well done. Total sessions: %d\n", completion.TotalSessions)
			} else {
				fmt.Fprintf(out, "Not quite a full session (%d/%d cycles). Total sessions: %d\n",
					res.CyclesCompleted, zen.CompletionThreshold, completion.TotalSessions)
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop automatically after this long (0 runs until interrupted)")
	return cmd
}

// breathe prints phase prompts until the event stream closes or limit passes.
func breathe(events <-chan zen.PhaseEvent, limit time.Duration, out io.Writer) {
	var deadline <-chan time.Time
	if limit > 0 {
		t := time.NewTimer(limit)
		defer t.Stop()
		deadline = t.C
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			text := phaseTexts[ev.Phase]
			fmt.Fprintf(out, "[cycle %d] %-15s %s (%s)\n", ev.CyclesCompleted+1, text.label, text.hint, ev.Duration)
		case <-deadline:
			return
		}
	}
}
