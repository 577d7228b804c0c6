package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/next-trace/stashit/app"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/services/stashsvc"
)

type cascadeOptions struct {
	email   string
	status  string
	stashes int
	relay   string
}

func (a *App) newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run scripted scenarios against a freshly built runtime",
	}

	cmd.AddCommand(a.newCascadeCmd())

	return cmd
}

func (a *App) newCascadeCmd() *cobra.Command {
	opts := &cascadeOptions{}

	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "Create a user with stashes, change the user's status and print the resulting events",
		Long: `Create a user owning --stashes stashes, move the user to --status and print every event
the bus saw, with its causation, followed by the final stash statuses.

Examples:
  # Suspend a user with three stashes
  stashd simulate cascade --status SUSPENDED --stashes 3

  # Same, relaying every event to the broker configured in nats.url
  stashd simulate cascade --status DELETED --relay nats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCascade(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "demo@stash.it", "email of the simulated user")
	cmd.Flags().StringVar(&opts.status, "status", string(shared.UserSuspended), "target user status")
	cmd.Flags().IntVar(&opts.stashes, "stashes", 2, "number of stashes to create")
	cmd.Flags().StringVar(&opts.relay, "relay", "", "override bus.relay")

	return cmd
}

func (a *App) runCascade(ctx context.Context, opts *cascadeOptions) error {
	status, err := shared.ParseUserStatus(opts.status)
	if err != nil {
		return err
	}

	email, err := user.ParseEmail(opts.email)
	if err != nil {
		return err
	}

	if opts.stashes < 0 {
		return fmt.Errorf("--stashes %d: must not be negative", opts.stashes)
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	if opts.relay != "" {
		cfg.Bus.Relay = opts.relay
	}

	logger, err := NewLogger(cfg.Log, a.stderr)
	if err != nil {
		return err
	}

	rt, err := app.Build(ctx, cfg, logger, app.WithTraceWriter(a.stderr))
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

	u, err := rt.Users.CreateUser(ctx, email)
	if err != nil {
		return err
	}

	ids := make([]shared.ID, 0, opts.stashes)

	for i := range opts.stashes {
		name, err := stash.ParseName(fmt.Sprintf("stash%d", i+1))
		if err != nil {
			return err
		}

		s, err := rt.Stashes.CreateStash(ctx, stashsvc.CreateStash{OwnerID: u.ID(), Name: name})
		if err != nil {
			return err
		}

		ids = append(ids, s.ID())
	}

	rt.Journal.Reset()

	if _, err := rt.Users.UpdateUserStatus(ctx, u.ID(), status); err != nil {
		return err
	}

	return a.printCascade(ctx, rt, ids)
}

func (a *App) printCascade(ctx context.Context, rt *app.App, ids []shared.ID) error {
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "EVENT\tAGGREGATE\tID\tCAUSED BY")

	for _, e := range rt.Journal.Events() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.EventType(), e.AggregateID(), e.EventID(), dash(e.CausationID()))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "STASH\tSTATUS")

	for _, id := range ids {
		s, err := rt.Stashes.GetStash(ctx, id)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%s\n", s.ID(), s.Status())
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
