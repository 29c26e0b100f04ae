package game

import (
	"strconv"
	"sync"

	"github.com/dragonworld-game/server/internal/dependencies/clock"
	"github.com/dragonworld-game/server/internal/model"
)

// Ledger is the idempotent record of world items already collected.
// Records are append-only: once an item is marked collected its record
// never changes, so duplicate pickup events from racing clients converge
// to a single entry with a single collector.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]model.CollectibleRecord

	clock clock.Clock
}

// NewLedger creates an empty collectible ledger.
func NewLedger(clk clock.Clock) *Ledger {
	return &Ledger{
		records: make(map[string]model.CollectibleRecord),
		clock:   clk,
	}
}

// MarkCollected records that itemID was collected by collector. If the
// item is already recorded the existing record is returned unchanged and
// created is false (first writer wins).
func (l *Ledger) MarkCollected(itemID, collector string) (record model.CollectibleRecord, created bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.records[itemID]; ok {
		return existing, false
	}

	record = model.CollectibleRecord{
		ItemID:      itemID,
		Collected:   true,
		CollectedBy: collector,
		CollectedAt: l.clock.Now(),
	}
	l.records[itemID] = record
	return record, true
}

// Records returns all collected-item records for replay to new joiners.
func (l *Ledger) Records() []model.CollectibleRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records := make([]model.CollectibleRecord, 0, len(l.records))
	for _, record := range l.records {
		records = append(records, record)
	}
	return records
}

// Len returns the number of collected items.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// DeriveItemKey builds the stable ledger key for an item from its fixed
// world coordinates. Deriving the key server-side keeps duplicate pickup
// events convergent and makes client-chosen ids unspoofable.
func DeriveItemKey(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + "_" + strconv.FormatFloat(y, 'f', -1, 64)
}
