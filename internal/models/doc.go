// Package models defines the persisted domain models for the shared-expense ledger.
//
// # Models
//
//   - Member: a person taking part in expenses (the "friends" of the web UI)
//   - Expense: an amount paid by one member on behalf of a party
//   - ExpenseSplit: what one non-payer member owes for an expense
//   - Settlement: a payment from a debtor to a creditor that retires debt
//
// Expenses, splits and settlements are immutable once recorded. Balances are
// never stored; they are recomputed from these records on demand.
//
// # Identity
//
// Members are numbered by the store (int64), which is what the ledger
// arithmetic uses as participant identity. Expenses and settlements use UUID
// strings. Models reference each other by ID, never by pointer.
package models
