package bridge

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// Codec turns frames into records and records into frames.
// The lifecycle uses CSVCodec unless CodecOption supplies another one.
type Codec interface {
	// DecodeInbound decodes one frame read from the driver.
	DecodeInbound(frame []byte) (InboundRecord, error)
	// EncodeOutbound encodes a record for transmission, including its terminator.
	EncodeOutbound(rec OutboundRecord) ([]byte, error)
}

// CSVCodec is the comma-separated ASCII wire format.
type CSVCodec struct{}

// DecodeInbound implements Codec with the package-level DecodeInbound.
func (CSVCodec) DecodeInbound(frame []byte) (InboundRecord, error) {
	return DecodeInbound(frame)
}

// EncodeOutbound implements Codec and never fails.
func (CSVCodec) EncodeOutbound(rec OutboundRecord) ([]byte, error) {
	return EncodeOutbound(rec), nil
}

// DecodeInbound parses the first seven comma-separated integers of raw.
//
// The frame ends at the first newline or NUL byte, or at the end of raw.
// Fields one to six must be complete integers. The seventh field only needs
// a numeric prefix, and anything after it is ignored: trailing bytes are
// tolerated so that drivers padding or batching their writes keep working.
// Fewer than seven parsed fields yields ErrMalformedRecord.
func DecodeInbound(raw []byte) (InboundRecord, error) {
	f := scanFields(raw, InboundFields)
	if len(f) < InboundFields {
		return InboundRecord{}, errors.Wrapf(ErrMalformedRecord, "parsed %d of %d fields", len(f), InboundFields)
	}
	return inboundFromFields(f), nil
}

// DecodeOutbound parses an action line using the same rules as DecodeInbound.
func DecodeOutbound(raw []byte) (OutboundRecord, error) {
	f := scanFields(raw, OutboundFields)
	if len(f) < OutboundFields {
		return OutboundRecord{}, errors.Wrapf(ErrMalformedRecord, "parsed %d of %d fields", len(f), OutboundFields)
	}
	return outboundFromFields(f), nil
}

// EncodeOutbound formats rec as "action,price,quantity,done,idle,ready\n".
func EncodeOutbound(rec OutboundRecord) []byte {
	f := rec.Fields()
	return appendFields(make([]byte, 0, 64), f[:])
}

// EncodeInbound formats rec as a newline-terminated market-data line.
func EncodeInbound(rec InboundRecord) []byte {
	f := rec.Fields()
	return appendFields(make([]byte, 0, 96), f[:])
}

func appendFields(dst []byte, fields []int32) []byte {
	for i, v := range fields {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return append(dst, '\n')
}

// frameBody strips the terminator and anything after it.
func frameBody(raw []byte) []byte {
	if i := bytes.IndexAny(raw, "\n\x00"); i >= 0 {
		raw = raw[:i]
	}
	return bytes.TrimSuffix(raw, []byte{'\r'})
}

// scanFields parses up to n comma-separated integers. It stops at the first
// token that fails, so the result is always a prefix of the frame's fields.
func scanFields(raw []byte, n int) []int32 {
	rest := frameBody(raw)
	out := make([]int32, 0, n)

	for len(out) < n {
		tok := rest
		i := bytes.IndexByte(rest, ',')
		if i >= 0 {
			tok, rest = rest[:i], rest[i+1:]
		}

		v, ok := parseToken(tok, len(out) == n-1)
		if !ok {
			break
		}
		out = append(out, v)

		if i < 0 {
			break
		}
	}

	return out
}

// parseToken parses one signed decimal int32. With prefixOnly set, trailing
// non-digit bytes after the number are ignored.
func parseToken(tok []byte, prefixOnly bool) (int32, bool) {
	tok = bytes.TrimLeft(tok, " \t")
	if prefixOnly {
		tok = numericPrefix(tok)
	} else {
		tok = bytes.TrimRight(tok, " \t")
	}
	if len(tok) == 0 {
		return 0, false
	}

	v, err := strconv.ParseInt(string(tok), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

func numericPrefix(tok []byte) []byte {
	end := 0
	if end < len(tok) && (tok[end] == '+' || tok[end] == '-') {
		end++
	}
	for end < len(tok) && tok[end] >= '0' && tok[end] <= '9' {
		end++
	}
	return tok[:end]
}
