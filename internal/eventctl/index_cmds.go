package eventctl

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eventcore/internal/discovery"
	"eventcore/internal/errs"
	"eventcore/internal/index"
	"eventcore/internal/offline"
	"eventcore/pkg/types"
)

func (s *state) rebuildCmd() *cobra.Command {
	var (
		strict    bool
		locations []string
	)
	cmd := &cobra.Command{
		Use:     "rebuild",
		Short:   "Discover offline classes and atomically replace the listener index",
		Example: "  eventctl index rebuild --strict\n  eventctl index rebuild --index var/listeners.cbor --locations builtin/shop",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when listeners have no event class")
	cmd.Flags().StringSliceVar(&locations, "locations", nil, "Catalog locations to scan (defaults to config locations, else all)")
	cmd.RunE = s.run(func(cmd *cobra.Command, args []string) error {
		f, err := s.cfg.Format()
		if err != nil {
			return err
		}
		sc := &discovery.Scanner{
			Catalog:   s.catalog,
			Locations: s.cfg.Locations,
			Strict:    s.cfg.Strict || strict,
			Metrics:   s.metrics,
			Logger:    &s.log,
		}
		if cmd.Flags().Changed("locations") {
			sc.Locations = locations
		}
		rep, err := sc.RebuildIndex(s.cfg.IndexPath, f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range rep.Orphans {
			fmt.Fprintf(out, "warning: %s has listeners but no event class\n", name)
		}
		status := "written"
		if rep.Unchanged {
			status = "unchanged"
		}
		fmt.Fprintf(out, "%s %s: %d events, %d listeners (%d classes scanned)\n", s.cfg.IndexPath, status, rep.Events+len(rep.Orphans), rep.Listeners, rep.Scanned)
		return nil
	})
	return cmd
}

func (s *state) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [event]",
		Short: "Print the listener index, or one entry of it, as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: s.run(func(cmd *cobra.Command, args []string) error {
			ix, err := s.store().Index()
			if err != nil {
				return err
			}
			a := ix.Artifact()
			if len(args) == 1 {
				e, ok := a[args[0]]
				if !ok {
					return fmt.Errorf("event %q is not indexed", args[0])
				}
				a = types.Artifact{args[0]: e}
			}
			data, err := index.Encode(a, index.FormatJSON)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}),
	}
}

func (s *state) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every indexed class is registered and bound to its event",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command, args []string) error {
			ix, err := s.store().Index()
			if err != nil {
				return err
			}
			problems := offline.Verify(ix, s.catalog)
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintf(out, "problem: %v\n", p)
			}
			if len(problems) > 0 {
				return errs.Configf("index verify", s.cfg.IndexPath, "%d problem(s) found; rebuild the index", len(problems))
			}
			fmt.Fprintf(out, "%s ok: %d events\n", s.cfg.IndexPath, ix.Len())
			return nil
		}),
	}
}

func (s *state) triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "trigger <event> [args...]",
		Short:   "Trigger an offline event with string arguments",
		Example: "  eventctl trigger OrderPlaced o-17\n  eventctl trigger UserCreated ada ada@example.org",
		Args:    cobra.MinimumNArgs(1),
		RunE: s.run(func(cmd *cobra.Command, args []string) error {
			events := offline.New(s.store(), s.catalog, offline.WithLogger(s.log), offline.WithMetrics(s.metrics))
			evArgs := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				evArgs = append(evArgs, a)
			}
			ev, err := events.TriggerOfflineEvent(args[0], evArgs...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case ev == nil:
				fmt.Fprintf(out, "%s: no listeners\n", args[0])
			case ev.IsCancelled():
				fmt.Fprintf(out, "%s: cancelled by %s: %s\n", args[0], ev.SelectedListener().Source(), ev.CancelReason())
			default:
				fmt.Fprintf(out, "%s: dispatched as %s (%s)\n", args[0], typeLabel(ev), strings.Join(args[1:], " "))
			}
			return nil
		}),
	}
}

func typeLabel(ev any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", ev), "*")
}
