package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// demoCmd replays a two person dinner on a throwaway ledger.
type demoCmd struct {
	app *App
}

func (*demoCmd) Name() string     { return "demo" }
func (*demoCmd) Synopsis() string { return "walk through a dinner split and its settlement" }
func (*demoCmd) Usage() string {
	return `splitctl demo

  Alice pays 90.00 for dinner shared with Bob, then Bob settles 45.00.
  Balances are printed before and after the settlement. The demo uses a
  temporary database and leaves the configured one untouched.
`
}
func (*demoCmd) SetFlags(_ *flag.FlagSet) {}

func (c *demoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := os.MkdirTemp("", "splitctl-demo-")
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitFailure
	}
	defer os.RemoveAll(dir)

	store, err := sqlite.New(filepath.Join(dir, "demo.db"))
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := c.run(ctx, service.NewLedger(store)); err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *demoCmd) run(ctx context.Context, l *service.Ledger) error {
	out := c.app.Out

	alice, err := l.AddMember(ctx, "Alice", "alice@example.com")
	if err != nil {
		return err
	}
	bob, err := l.AddMember(ctx, "Bob", "bob@example.com")
	if err != nil {
		return err
	}

	dinner := decimal.NewFromInt(90)
	rec, err := l.RecordExpense(ctx, service.ExpenseInput{
		Amount:       dinner,
		Description:  "Dinner",
		PayerID:      alice.ID,
		Participants: []int64{alice.ID, bob.ID},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Alice paid %s for dinner with Bob (%s each)\n",
		c.app.Money.Format(dinner), c.app.Money.Format(rec.Split.PerPerson))

	fmt.Fprintln(out, "\nBefore settlement")
	if err := c.app.showBalances(ctx, l); err != nil {
		return err
	}

	settlement, err := l.RecordSettlement(ctx, bob.ID, alice.ID, decimal.NewFromInt(45), "dinner")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nBob paid Alice %s\n", c.app.Money.Format(settlement.Amount))

	fmt.Fprintln(out, "\nAfter settlement")
	return c.app.showBalances(ctx, l)
}
