// Package ledger holds the expense-splitting arithmetic: dividing an expense between
// members, netting expenses and settlements into balances, and the aggregates shown
// in reports.
//
// Every function is pure. Inputs are never modified and no state is kept between
// calls, so the functions are safe to call from any number of goroutines.
package ledger
