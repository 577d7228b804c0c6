// Package stashsvc holds the stash and ledger use cases and the handlers that keep stashes in step
// with their owners (status cascade) and with the ledger (balance bookkeeping).
package stashsvc
