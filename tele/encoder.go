package tele

import (
	"github.com/juju/errors"
	"github.com/temoto/tbdevice/log2"
	"github.com/temoto/tbdevice/tele/codec"
)

const (
	DefaultPayloadSize = 64
	DefaultMaxFields   = 8
)

// Encoder renders Values into compact JSON under fixed budgets:
// at most MaxFields members, at most PayloadSize-1 bytes (PayloadSize counts terminator).
// Buffers are allocated once in NewEncoder and never grow.
// Not safe for concurrent use.
type Encoder struct {
	payloadSize int
	maxFields   int
	doc         *codec.Document
	buf         []byte
	log         *log2.Log
}

func NewEncoder(payloadSize, maxFields int, log *log2.Log) (*Encoder, error) {
	if payloadSize < 2 {
		return nil, errors.Annotatef(ErrInvalidConfiguration, "payload size=%d must be at least 2", payloadSize)
	}
	if maxFields < 1 {
		return nil, errors.Annotatef(ErrInvalidConfiguration, "max fields=%d must be at least 1", maxFields)
	}
	return &Encoder{
		payloadSize: payloadSize,
		maxFields:   maxFields,
		doc:         codec.NewDocument(maxFields),
		buf:         make([]byte, payloadSize),
		log:         log,
	}, nil
}

func (e *Encoder) PayloadSize() int { return e.payloadSize }
func (e *Encoder) MaxFields() int   { return e.maxFields }

// Encode is aggregated path: many values into one document of MaxFields capacity.
// Returned slice aliases internal buffer, valid until next Encode*.
func (e *Encoder) Encode(values []Value) ([]byte, error) {
	return e.encode(values, e.maxFields)
}

// EncodeOne is single key-value path, document capacity is 1.
func (e *Encoder) EncodeOne(v Value) ([]byte, error) {
	var one [1]Value
	one[0] = v
	return e.encode(one[:], 1)
}

func (e *Encoder) encode(values []Value, capacity int) ([]byte, error) {
	if len(values) > capacity {
		e.log.Errorf("%s count=%d max=%d", ErrFieldCountExceeded.Error(), len(values), capacity)
		return nil, errors.Annotatef(ErrFieldCountExceeded, "count=%d max=%d", len(values), capacity)
	}

	e.doc.Reset(capacity)
	for i := range values {
		if !values[i].SerializeKeyval(e.doc) {
			e.log.Errorf("%s value=%s", ErrValueSerialization.Error(), values[i].String())
			return nil, errors.Annotatef(ErrValueSerialization, "value=%s", values[i].String())
		}
	}

	if size := e.doc.Measure(); size > e.payloadSize-1 {
		e.log.Errorf("%s size=%d payload_size=%d", ErrSerializationOverflow.Error(), size, e.payloadSize)
		return nil, errors.Annotatef(ErrSerializationOverflow, "size=%d payload_size=%d", size, e.payloadSize)
	}

	n, err := e.doc.Render(e.buf[:e.payloadSize-1])
	if err != nil {
		return nil, errors.Annotate(err, "code error render after measure")
	}
	return e.buf[:n], nil
}
