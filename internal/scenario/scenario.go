// Package scenario loads the market-data snapshots streamed by the test
// driver and converts them into inbound bridge records.
package scenario

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	bridge "github.com/Zereker/fpgabridge"
)

const (
	// TickSize is the price increment one tick represents.
	TickSize = 0.01
	// StrongQty is the resting quantity at which a queue is reported strong.
	StrongQty = 100
)

// ErrInvalidScenario is returned for documents that are not snapshots.
var ErrInvalidScenario = errors.New("invalid scenario")

// Snapshot is the top of book for one symbol.
type Snapshot struct {
	Symbol   string
	BidPrice float64
	AskPrice float64
	BidQty   int64
	AskQty   int64
}

// Inbound converts s into a wire record carrying position.
// Prices become ticks and each side is strong from StrongQty upwards.
func (s Snapshot) Inbound(position int32) bridge.InboundRecord {
	return bridge.InboundRecord{
		BidPrice:  toTicks(s.BidPrice),
		AskPrice:  toTicks(s.AskPrice),
		BidQty:    clamp(s.BidQty),
		AskQty:    clamp(s.AskQty),
		BidStrong: strong(s.BidQty),
		AskStrong: strong(s.AskQty),
		Position:  position,
	}
}

// SpreadTicks returns the quoted spread in ticks.
func (s Snapshot) SpreadTicks() int32 {
	return toTicks(s.AskPrice) - toTicks(s.BidPrice)
}

// Defaults returns the built-in scenarios.
func Defaults() []Snapshot {
	return []Snapshot{
		{Symbol: "SPY", BidPrice: 500.00, AskPrice: 500.01, BidQty: 20000, AskQty: 15000},
		{Symbol: "QQQ", BidPrice: 349.50, AskPrice: 349.55, BidQty: 5000, AskQty: 4500},
		{Symbol: "IWM", BidPrice: 199.98, AskPrice: 200.01, BidQty: 3000, AskQty: 2800},
	}
}

// Parse reads a JSON object, or an array of objects, with the fields
// symbol, bid_price, ask_price, bid_qty and ask_qty. Other fields such as
// timestamp or spread are ignored.
func Parse(data []byte) ([]Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Wrap(ErrInvalidScenario, "malformed json")
	}

	doc := gjson.ParseBytes(data)
	switch {
	case doc.IsObject():
		s, err := parseSnapshot(doc)
		if err != nil {
			return nil, err
		}
		return []Snapshot{s}, nil

	case doc.IsArray():
		var (
			out []Snapshot
			err error
		)
		doc.ForEach(func(key, value gjson.Result) bool {
			var s Snapshot
			if s, err = parseSnapshot(value); err != nil {
				err = errors.WithMessagef(err, "element %d", key.Int())
				return false
			}
			out = append(out, s)
			return true
		})
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, errors.Wrap(ErrInvalidScenario, "empty array")
		}
		return out, nil

	default:
		return nil, errors.Wrap(ErrInvalidScenario, "expected object or array")
	}
}

// LoadFiles parses every file in order and concatenates the snapshots.
func LoadFiles(paths ...string) ([]Snapshot, error) {
	var out []Snapshot
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read scenario")
		}

		s, err := Parse(data)
		if err != nil {
			return nil, errors.WithMessage(err, path)
		}
		out = append(out, s...)
	}
	return out, nil
}

func parseSnapshot(v gjson.Result) (Snapshot, error) {
	if !v.IsObject() {
		return Snapshot{}, errors.Wrap(ErrInvalidScenario, "snapshot is not an object")
	}

	for _, key := range []string{"bid_price", "ask_price", "bid_qty", "ask_qty"} {
		if f := v.Get(key); f.Type != gjson.Number {
			return Snapshot{}, errors.Wrapf(ErrInvalidScenario, "field %s missing or not a number", key)
		}
	}

	s := Snapshot{
		Symbol:   v.Get("symbol").String(),
		BidPrice: v.Get("bid_price").Float(),
		AskPrice: v.Get("ask_price").Float(),
		BidQty:   v.Get("bid_qty").Int(),
		AskQty:   v.Get("ask_qty").Int(),
	}
	if s.BidPrice < 0 || s.AskPrice < 0 || s.BidQty < 0 || s.AskQty < 0 {
		return Snapshot{}, errors.Wrap(ErrInvalidScenario, "negative price or quantity")
	}
	if s.Symbol == "" {
		s.Symbol = "UNKNOWN"
	}
	return s, nil
}

func toTicks(price float64) int32 {
	return int32(math.Min(math.Round(price/TickSize), math.MaxInt32))
}

func clamp(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

func strong(qty int64) int32 {
	if qty >= StrongQty {
		return 1
	}
	return 0
}
