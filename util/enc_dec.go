package util

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type EncoderDecoder[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (*T, error)
}

// JsonEncDec encodes T as JSON. Decoded values are passed through check, so
// a corrupt stored value surfaces as an error instead of a zero value.
type JsonEncDec[T any] struct {
	check func(*T) error
}

var _ EncoderDecoder[any] = new(JsonEncDec[any])

func NewJsonEncoderDecoder[T any](check func(*T) error) *JsonEncDec[T] {
	return &JsonEncDec[T]{check: check}
}

func (encdec *JsonEncDec[T]) Encode(value T) ([]byte, error) {
	if encdec.check != nil {
		if err := encdec.check(&value); err != nil {
			return nil, fmt.Errorf("refusing to encode: %w", err)
		}
	}
	return json.Marshal(value)
}

func (encdec *JsonEncDec[T]) Decode(data []byte) (*T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	var res T
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	if encdec.check != nil {
		if err := encdec.check(&res); err != nil {
			return nil, err
		}
	}
	return &res, nil
}
