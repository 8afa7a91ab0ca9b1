package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager executes functions transactionally. The sync merge
// (upsert plus diff-delete) relies on it so a page is replaced atomically.
type TransactionManager interface {
	// ExecTx executes fn within a transaction carried on the context.
	ExecTx(ctx context.Context, fn TxFn) error
}
