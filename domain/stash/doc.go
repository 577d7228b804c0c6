// Package stash models wallets ("stashes") owned by users and the ledger entries booked against them.
package stash
