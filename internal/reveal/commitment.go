package reveal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrBadHex32      = errors.New("expected 32-byte hex value")
	ErrBadRandom     = errors.New("random value must be a non-negative integer")
	ErrAmountTooWide = errors.New("amount exceeds 256 bits")
)

// ComputeCommitment hashes every bound field of an invocation with a fixed,
// order-sensitive encoding: each field is 4-byte length-prefixed and
// appended in declaration order, then the whole buffer is sha256'd. Changing
// any field, not just the random value, changes the digest.
func ComputeCommitment(authority string, invocationID [32]byte, ruleID uint64, asset string, amount decimal.Decimal, randomValue *big.Int, salt [32]byte) (string, error) {
	if randomValue == nil || randomValue.Sign() < 0 {
		return "", ErrBadRandom
	}
	amountInt := amount.BigInt()
	if amountInt.Sign() < 0 || amountInt.BitLen() > 256 {
		return "", ErrAmountTooWide
	}

	var ruleBuf [8]byte
	binary.BigEndian.PutUint64(ruleBuf[:], ruleID)

	h := sha256.New()
	writeField(h.Write, []byte(authority))
	writeField(h.Write, invocationID[:])
	writeField(h.Write, ruleBuf[:])
	writeField(h.Write, []byte(asset))
	writeField(h.Write, amountInt.Bytes())
	writeField(h.Write, randomValue.Bytes())
	writeField(h.Write, salt[:])

	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeField(write func([]byte) (int, error), field []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
	_, _ = write(lenBuf[:])
	_, _ = write(field)
}

// ParseHex32 decodes a 32-byte value from hex, with or without 0x prefix.
func ParseHex32(s string) ([32]byte, error) {
	var out [32]byte
	cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	raw, err := hex.DecodeString(cleaned)
	if err != nil || len(raw) != 32 {
		return out, ErrBadHex32
	}
	copy(out[:], raw)
	return out, nil
}

// ParseRandom accepts the revealed random value as a decimal string or a
// 0x-prefixed hex string, up to 256 bits.
func ParseRandom(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrBadRandom
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok || v.Sign() < 0 {
		return nil, ErrBadRandom
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: exceeds 256 bits", ErrBadRandom)
	}
	return v, nil
}
