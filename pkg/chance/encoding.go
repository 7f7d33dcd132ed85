package chance

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Text form is the shortest 'g' rendering of the raw value, with "+Inf" and
// "-Inf" for the infinite sentinels. Binary form is the 8-byte big-endian
// IEEE-754 encoding. Decoding re-validates through the constructor.

func (p Probability) MarshalText() ([]byte, error) { return marshalText(p.value), nil }

func (p *Probability) UnmarshalText(text []byte) error {
	v, err := parseText(text)
	if err != nil {
		return err
	}
	parsed, err := NewProbability(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Probability) MarshalBinary() ([]byte, error) { return marshalBinary(p.value), nil }

func (p *Probability) UnmarshalBinary(data []byte) error {
	v, err := parseBinary(data)
	if err != nil {
		return err
	}
	parsed, err := NewProbability(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (o Odds) MarshalText() ([]byte, error) { return marshalText(o.value), nil }

func (o *Odds) UnmarshalText(text []byte) error {
	v, err := parseText(text)
	if err != nil {
		return err
	}
	parsed, err := NewOdds(v)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o Odds) MarshalBinary() ([]byte, error) { return marshalBinary(o.value), nil }

func (o *Odds) UnmarshalBinary(data []byte) error {
	v, err := parseBinary(data)
	if err != nil {
		return err
	}
	parsed, err := NewOdds(v)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (l LogOdds) MarshalText() ([]byte, error) { return marshalText(l.value), nil }

func (l *LogOdds) UnmarshalText(text []byte) error {
	v, err := parseText(text)
	if err != nil {
		return err
	}
	parsed, err := NewLogOdds(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l LogOdds) MarshalBinary() ([]byte, error) { return marshalBinary(l.value), nil }

func (l *LogOdds) UnmarshalBinary(data []byte) error {
	v, err := parseBinary(data)
	if err != nil {
		return err
	}
	parsed, err := NewLogOdds(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func marshalText(v float64) []byte {
	return []byte(strconv.FormatFloat(v, 'g', -1, 64))
}

func parseText(text []byte) (float64, error) {
	s := strings.TrimSpace(string(text))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chance value %q: %w", s, err)
	}
	return v, nil
}

func marshalBinary(v float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

func parseBinary(data []byte) (float64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("decode chance value: want 8 bytes, got %d", len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}
