package config

import (
	"strconv"

	"github.com/alecthomas/units"
)

// ByteSize is a byte count written with an optional binary unit suffix,
// as in "16MiB" or "512KiB".
type ByteSize units.Base2Bytes

func ParseByteSize(s string) (ByteSize, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ByteSize(n), nil
	}
	b, err := units.ParseBase2Bytes(s)
	return ByteSize(b), err
}

func (b ByteSize) String() string {
	return units.Base2Bytes(b).String()
}

func (b *ByteSize) Set(s string) error {
	v, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	return b.Set(string(text))
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
