package models

// ClaimLedger records which configuration claimed each row, per product.
// A row can be claimed at most once per product.
type ClaimLedger struct {
	claims map[Product]map[int]int
}

// NewClaimLedger creates an empty ledger.
func NewClaimLedger() *ClaimLedger {
	return &ClaimLedger{claims: make(map[Product]map[int]int)}
}

// Claim marks rowID as claimed by configIndex. It returns false and leaves the
// ledger untouched when the row was already claimed for the product.
func (l *ClaimLedger) Claim(p Product, rowID, configIndex int) bool {
	byRow, ok := l.claims[p]
	if !ok {
		byRow = make(map[int]int)
		l.claims[p] = byRow
	}
	if _, taken := byRow[rowID]; taken {
		return false
	}
	byRow[rowID] = configIndex
	return true
}

// IsClaimed reports whether the row is claimed for the product.
func (l *ClaimLedger) IsClaimed(p Product, rowID int) bool {
	if l == nil {
		return false
	}
	_, ok := l.claims[p][rowID]
	return ok
}

// ClaimedBy returns the configuration index that claimed the row.
func (l *ClaimLedger) ClaimedBy(p Product, rowID int) (int, bool) {
	if l == nil {
		return 0, false
	}
	idx, ok := l.claims[p][rowID]
	return idx, ok
}

// Count returns how many rows are claimed for the product.
func (l *ClaimLedger) Count(p Product) int {
	if l == nil {
		return 0
	}
	return len(l.claims[p])
}

// Tracks reports whether the ledger has been used for the product.
func (l *ClaimLedger) Tracks(p Product) bool {
	if l == nil {
		return false
	}
	_, ok := l.claims[p]
	return ok
}

// Track registers a product so it shows up as a working column even before
// any claim.
func (l *ClaimLedger) Track(p Product) {
	if _, ok := l.claims[p]; !ok {
		l.claims[p] = make(map[int]int)
	}
}

// Clone returns an independent copy.
func (l *ClaimLedger) Clone() *ClaimLedger {
	if l == nil {
		return nil
	}
	out := NewClaimLedger()
	for p, byRow := range l.claims {
		cp := make(map[int]int, len(byRow))
		for k, v := range byRow {
			cp[k] = v
		}
		out.claims[p] = cp
	}
	return out
}
