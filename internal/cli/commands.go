package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/service"
)

type splitCmd struct {
	app          *App
	amount       string
	payer        int64
	participants string
}

func (*splitCmd) Name() string     { return "split" }
func (*splitCmd) Synopsis() string { return "preview an equal split without recording it" }
func (*splitCmd) Usage() string {
	return `splitctl split -amount <amount> -payer <id> -with <id,id,...>

  Divides the amount equally by the number of participants and shows what
  each one would owe the payer. The payer never owes their own share.
`
}

func (c *splitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Expense amount, e.g. 90.00")
	f.Int64Var(&c.payer, "payer", 0, "ID of the member who paid")
	f.StringVar(&c.participants, "with", "", "Comma separated IDs of the members sharing the expense")
}

func (c *splitCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := parseAmount(c.amount)
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitUsageError
	}
	ids, err := parseIDs(c.participants)
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitUsageError
	}

	participants := make([]calculator.ParticipantID, len(ids))
	for i, id := range ids {
		participants[i] = calculator.ParticipantID(id)
	}
	result := calculator.ComputeSplit(amount, calculator.ParticipantID(c.payer), participants)
	if result.Skipped {
		fmt.Fprintf(c.app.Out, "Nothing to split: %s\n", result.SkipReason)
		return subcommands.ExitSuccess
	}

	fmt.Fprintf(c.app.Out, "Per person: %s\n", c.app.Money.Format(result.PerPerson))
	for _, s := range result.Shares {
		fmt.Fprintf(c.app.Out, "  #%d owes #%d %s\n", s.Member, c.payer, c.app.Money.Format(s.Owed))
	}
	fmt.Fprintf(c.app.Out, "Payer share: %s\n", c.app.Money.Format(result.PayerShare(amount)))
	return subcommands.ExitSuccess
}

type addMemberCmd struct {
	app   *App
	name  string
	email string
}

func (*addMemberCmd) Name() string     { return "add-member" }
func (*addMemberCmd) Synopsis() string { return "add a member to the ledger" }
func (*addMemberCmd) Usage() string {
	return `splitctl add-member -name <name> [-email <email>]
`
}

func (c *addMemberCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Member name")
	f.StringVar(&c.email, "email", "", "Optional email address")
}

func (c *addMemberCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withLedger(ctx, func(l *service.Ledger) error {
		m, err := l.AddMember(ctx, c.name, c.email)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Added %s\n", memberLabel(map[int64]string{m.ID: m.Name}, m.ID))
		return nil
	})
}

type membersCmd struct {
	app *App
}

func (*membersCmd) Name() string             { return "members" }
func (*membersCmd) Synopsis() string         { return "list the ledger members" }
func (*membersCmd) Usage() string            { return "splitctl members\n" }
func (*membersCmd) SetFlags(_ *flag.FlagSet) {}

func (c *membersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withLedger(ctx, func(l *service.Ledger) error {
		members, err := l.ListMembers(ctx)
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Fprintf(c.app.Out, "%d\t%s\t%s\n", m.ID, m.Name, m.Email)
		}
		return nil
	})
}

type addExpenseCmd struct {
	app          *App
	amount       string
	payer        int64
	participants string
	description  string
	date         string
}

func (*addExpenseCmd) Name() string     { return "add-expense" }
func (*addExpenseCmd) Synopsis() string { return "record an expense split equally" }
func (*addExpenseCmd) Usage() string {
	return `splitctl add-expense -amount <amount> -payer <id> -with <id,id,...> [-desc <text>] [-date YYYY-MM-DD]

  Records the expense and the debt of every participant other than the payer.
  An expense without participants is recorded but creates no debt.
`
}

func (c *addExpenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Expense amount, e.g. 90.00")
	f.Int64Var(&c.payer, "payer", 0, "ID of the member who paid")
	f.StringVar(&c.participants, "with", "", "Comma separated IDs of the members sharing the expense")
	f.StringVar(&c.description, "desc", "", "Description")
	f.StringVar(&c.date, "date", "", "Expense date (defaults to today)")
}

func (c *addExpenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := parseAmount(c.amount)
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitUsageError
	}
	ids, err := parseIDs(c.participants)
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitUsageError
	}
	date, err := service.ParseDate(c.date)
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitUsageError
	}

	return c.app.withLedger(ctx, func(l *service.Ledger) error {
		rec, err := l.RecordExpense(ctx, service.ExpenseInput{
			Amount:       amount,
			Description:  c.description,
			PayerID:      c.payer,
			Participants: ids,
			Date:         date,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Recorded expense %s (%s)\n", rec.Expense.ID, c.app.Money.Format(rec.Expense.Amount))
		if rec.Split.Skipped {
			fmt.Fprintf(c.app.Out, "No debts created: %s\n", rec.Split.SkipReason)
		}
		return nil
	})
}

type settleCmd struct {
	app    *App
	from   int64
	to     int64
	amount string
	note   string
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "record a payment between two members" }
func (*settleCmd) Usage() string {
	return `splitctl settle -from <id> -to <id> -amount <amount> [-note <text>]
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.from, "from", 0, "ID of the member paying")
	f.Int64Var(&c.to, "to", 0, "ID of the member receiving")
	f.StringVar(&c.amount, "amount", "", "Amount paid")
	f.StringVar(&c.note, "note", "", "Optional note")
}

func (c *settleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := parseAmount(c.amount)
	if err != nil {
		fmt.Fprintln(c.app.Out, "Error:", err)
		return subcommands.ExitUsageError
	}

	return c.app.withLedger(ctx, func(l *service.Ledger) error {
		s, err := l.RecordSettlement(ctx, c.from, c.to, amount, c.note)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Recorded settlement %s: #%d paid #%d %s\n",
			s.ID, s.PayerID, s.ReceiverID, c.app.Money.Format(s.Amount))
		return nil
	})
}

type balancesCmd struct {
	app *App
	net bool
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "show who owes whom and how to settle up" }
func (*balancesCmd) Usage() string {
	return `splitctl balances [-net]

  Recomputes every balance from the recorded expenses and settlements.
  With -net, also lists the signed net of every member, settled or not.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.net, "net", false, "Also print every member's signed net balance")
}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withLedger(ctx, func(l *service.Ledger) error {
		summary, names, err := c.app.loadBalances(ctx, l)
		if err != nil {
			return err
		}
		c.app.printBalances(summary, names)
		if c.net {
			c.app.printNet(summary, names)
		}
		return nil
	})
}

// showBalances prints the current balances of l with member names.
func (a *App) showBalances(ctx context.Context, l *service.Ledger) error {
	summary, names, err := a.loadBalances(ctx, l)
	if err != nil {
		return err
	}
	a.printBalances(summary, names)
	return nil
}

func (a *App) loadBalances(ctx context.Context, l *service.Ledger) (*service.BalanceSummary, map[int64]string, error) {
	summary, err := l.Balances(ctx)
	if err != nil {
		return nil, nil, err
	}
	members, err := l.ListMembers(ctx)
	if err != nil {
		return nil, nil, err
	}
	return summary, service.MemberNames(members), nil
}

type resetCmd struct {
	app *App
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete every member, expense and settlement" }
func (*resetCmd) Usage() string {
	return `splitctl reset -yes
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the reset")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(c.app.Out, "Refusing to reset without -yes")
		return subcommands.ExitUsageError
	}
	return c.app.withLedger(ctx, func(l *service.Ledger) error {
		if err := l.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.app.Out, "Ledger reset")
		return nil
	})
}
