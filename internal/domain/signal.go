package domain

import "time"

// Decision is the trade stance derived for a symbol.
type Decision string

const (
	Buy  Decision = "BUY"
	Sell Decision = "SELL"
	Wait Decision = "WAIT"
)

// Plan is the suggested entry/stop/target for a signal. RiskReward is nil when
// the stop is not below the entry.
type Plan struct {
	Entry      float64  `json:"entry"`
	Stop       float64  `json:"stop"`
	Target     float64  `json:"target"`
	RiskReward *float64 `json:"riskReward,omitempty"`
}

// Signal is one evaluation of a symbol. It is immutable once built; each
// refresh cycle replaces the previous Signal for the symbol.
type Signal struct {
	Symbol       string    `json:"symbol"`
	Decision     Decision  `json:"decision"`
	Score        int       `json:"score"` // 0..100
	DailyTrendOk bool      `json:"dailyTrendOk"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Plan         *Plan     `json:"plan,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// SnapshotPayload is the persisted form of a complete signal set. Partial
// cycles are never persisted.
type SnapshotPayload struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Warning     *string   `json:"warning"`
	Signals     []Signal  `json:"signals"`
}

// Position is one row of the manually managed position ledger.
type Position struct {
	Symbol     string    `json:"symbol"`
	OpenedAt   time.Time `json:"openedAt"`
	EntryPrice *float64  `json:"entryPrice,omitempty"`
	Note       *string   `json:"note,omitempty"`
}
