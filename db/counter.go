package db

// counterTxn is the slice of a store transaction the sequence allocator
// needs: one counter read and one merge write. The caller provides the
// serialization guarantee (per dateKey) around both calls.
type counterTxn interface {
	// LastSequence returns the day's last allocated sequence, 0 when the
	// counter document does not exist yet.
	LastSequence(dateKey string) (int64, error)
	// SetLastSequence persists the new high-water mark without disturbing
	// unrelated fields on the counter document.
	SetLastSequence(dateKey string, sequence int64) error
}

// nextSequence performs the read-increment-write step of an allocation.
// Run inside a transaction it yields a strictly increasing, gap-free series
// per dateKey: two concurrent callers can never both observe the same
// lastSequence value.
func nextSequence(txn counterTxn, dateKey string) (int64, error) {
	last, err := txn.LastSequence(dateKey)
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := txn.SetLastSequence(dateKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// counterValue extracts lastSequence from a counter document's field bag.
// Firestore integers decode as int64, but older documents written by other
// clients may carry doubles.
func counterValue(data map[string]interface{}) int64 {
	switch v := data["lastSequence"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
