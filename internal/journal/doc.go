// Package journal records poll cycle outcomes in the local SQLite database.
//
// SQLiteRepository observes the poll loop and inserts one poll_cycles row
// per finished cycle. Rows older than the retention window are pruned
// every PruneEvery recorded cycles. The table is created by the embedded
// migrations in the migrations package.
package journal
