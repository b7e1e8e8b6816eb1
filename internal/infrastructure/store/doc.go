// Package store provides SQLite-backed persistence for gateway state.
//
// The store is a small key/value table holding settings that should
// survive restarts: the last resolved broker address, join attempt
// counters, and similar bookkeeping. It replaces the non-volatile
// storage a microcontroller gateway would use for the same purpose.
//
// Well-known keys:
//
//	broker/last_resolved  numeric address from the most recent discovery
//	join/attempts         cumulative connectivity join attempts
//
// # Usage
//
//	st, err := store.Open(ctx, store.Config{Path: "./data/radiobridge.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := st.Put(ctx, "broker/last_resolved", addr); err != nil {
//	    return err
//	}
package store
