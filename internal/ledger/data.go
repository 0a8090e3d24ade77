package ledger

import (
	"fmt"

	"concertticket/pkg/codec"
)

// PackData encodes v as d followed by its deterministic CBOR form. It
// is the layout of both account data and instruction data.
func PackData(d Discriminator, v any) ([]byte, error) {
	body, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(d)+len(body))
	out = append(out, d[:]...)
	return append(out, body...), nil
}

// UnpackData checks the discriminator and decodes the rest into v.
func UnpackData(d Discriminator, data []byte, v any) error {
	if !d.Matches(data) {
		return ErrDiscriminatorMismatch
	}
	if err := codec.Unmarshal(data[len(d):], v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return nil
}
