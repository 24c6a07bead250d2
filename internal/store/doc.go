// Package store holds the database plumbing shared by the durable cache tiers: the DBTX
// abstraction over connections and transactions, common error values and a transaction
// helper.
package store
