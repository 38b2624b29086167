package bridge

import "fmt"

// Number of integer fields carried by each record on the wire.
const (
	InboundFields  = 7
	OutboundFields = 6
)

// InboundRecord is one market-data snapshot sent by the driver towards the
// co-processor. Field meaning is opaque to the bridge.
type InboundRecord struct {
	BidPrice  int32
	AskPrice  int32
	BidQty    int32
	AskQty    int32
	BidStrong int32
	AskStrong int32
	Position  int32
}

// Fields returns the record in wire order.
func (r InboundRecord) Fields() [InboundFields]int32 {
	return [InboundFields]int32{r.BidPrice, r.AskPrice, r.BidQty, r.AskQty, r.BidStrong, r.AskStrong, r.Position}
}

func inboundFromFields(f []int32) InboundRecord {
	return InboundRecord{
		BidPrice:  f[0],
		AskPrice:  f[1],
		BidQty:    f[2],
		AskQty:    f[3],
		BidStrong: f[4],
		AskStrong: f[5],
		Position:  f[6],
	}
}

// String formats the record for logs.
func (r InboundRecord) String() string {
	return fmt.Sprintf("bid %d x %d, ask %d x %d, strong %d/%d, position %d",
		r.BidPrice, r.BidQty, r.AskPrice, r.AskQty, r.BidStrong, r.AskStrong, r.Position)
}

// OutboundRecord is one trading action produced by the co-processor, with
// its done/idle/ready handshake flags.
type OutboundRecord struct {
	Action   int32
	Price    int32
	Quantity int32
	Done     int32
	Idle     int32
	Ready    int32
}

// Fields returns the record in wire order.
func (r OutboundRecord) Fields() [OutboundFields]int32 {
	return [OutboundFields]int32{r.Action, r.Price, r.Quantity, r.Done, r.Idle, r.Ready}
}

func outboundFromFields(f []int32) OutboundRecord {
	return OutboundRecord{
		Action:   f[0],
		Price:    f[1],
		Quantity: f[2],
		Done:     f[3],
		Idle:     f[4],
		Ready:    f[5],
	}
}

// String formats the record for logs.
func (r OutboundRecord) String() string {
	return fmt.Sprintf("action %d, price %d, qty %d, done %d, idle %d, ready %d",
		r.Action, r.Price, r.Quantity, r.Done, r.Idle, r.Ready)
}
