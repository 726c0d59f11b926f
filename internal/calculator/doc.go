// Package calculator holds the ledger arithmetic: equal splits, the fold of
// expenses and settlements into net balances, and the report built from them.
//
// Every function here is pure. Callers fetch a snapshot of the event streams
// and pass it in; nothing in this package performs I/O or keeps state between
// calls.
package calculator
