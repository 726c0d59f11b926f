// Package cli implements the splitctl subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/backend"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/service"
)

// App is the state shared by every subcommand.
type App struct {
	Out   io.Writer
	Money money.Formatter

	// Open returns a ledger and a function releasing it.
	Open func(ctx context.Context) (*service.Ledger, func(), error)
}

// NewApp returns an App backed by the store and publisher cfg selects.
func NewApp(cfg *config.Config, out io.Writer) *App {
	return &App{
		Out:   out,
		Money: money.NewFormatter(cfg.Currency),
		Open: func(ctx context.Context) (*service.Ledger, func(), error) {
			store, err := backend.NewStore(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			pub := backend.NewPublisher(cfg)
			ledger := service.NewLedger(store,
				service.WithPublisher(pub),
				service.WithSnapshotConcurrency(cfg.SnapshotConcurrency),
			)
			release := func() {
				_ = pub.Close()
				_ = store.Close()
			}
			return ledger, release, nil
		},
	}
}

// Register adds every subcommand to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&splitCmd{app: app}, "ledger")
	c.Register(&addMemberCmd{app: app}, "ledger")
	c.Register(&membersCmd{app: app}, "ledger")
	c.Register(&addExpenseCmd{app: app}, "ledger")
	c.Register(&settleCmd{app: app}, "ledger")
	c.Register(&balancesCmd{app: app}, "ledger")

	c.Register(&demoCmd{app: app}, "admin")
	c.Register(&resetCmd{app: app}, "admin")
}

// withLedger opens the ledger, runs fn and maps its error to an exit status.
func (a *App) withLedger(ctx context.Context, fn func(*service.Ledger) error) subcommands.ExitStatus {
	ledger, release, err := a.Open(ctx)
	if err != nil {
		fmt.Fprintln(a.Out, "Error:", err)
		return subcommands.ExitFailure
	}
	defer release()

	if err := fn(ledger); err != nil {
		fmt.Fprintln(a.Out, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// memberLabel renders a participant as "Name (id)", or "#id" once deleted.
func memberLabel(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return fmt.Sprintf("%s (%d)", name, id)
	}
	return fmt.Sprintf("#%d", id)
}

// parseIDs parses a comma separated list of member IDs. Empty means none.
func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid member id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// printBalances writes the balance report followed by the settle-up plan.
func (a *App) printBalances(summary *service.BalanceSummary, names map[int64]string) {
	entries := summary.Report.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "All settled up.")
		return
	}

	fmt.Fprintln(a.Out, "Balances:")
	for _, e := range entries {
		verb := "owes"
		if e.Direction == calculator.DirectionIsOwed {
			verb = "is owed"
		}
		fmt.Fprintf(a.Out, "  %s %s %s\n", memberLabel(names, int64(e.Participant)), verb, a.Money.Format(e.Amount))
	}

	fmt.Fprintln(a.Out, "Settle up:")
	for _, t := range summary.Transfers {
		fmt.Fprintf(a.Out, "  %s pays %s %s\n",
			memberLabel(names, int64(t.From)), memberLabel(names, int64(t.To)), a.Money.Format(t.Amount))
	}
}

// printNet lists the signed net of every member that appears in the ledger.
func (a *App) printNet(summary *service.BalanceSummary, names map[int64]string) {
	if len(summary.Members) == 0 {
		return
	}
	fmt.Fprintf(a.Out, "Net (%s):\n", a.Money.Code())
	for _, m := range summary.Members {
		fmt.Fprintf(a.Out, "  %s %s\n", memberLabel(names, int64(m.Participant)), a.Money.Signed(m.NetBalance))
	}
}
