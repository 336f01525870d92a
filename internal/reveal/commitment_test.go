package reveal

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func baseInputs() (string, [32]byte, uint64, string, decimal.Decimal, *big.Int, [32]byte) {
	var invocationID, salt [32]byte
	invocationID[0] = 0x01
	salt[31] = 0x02
	return "authority-1", invocationID, 7, "USDC", decimal.NewFromInt(120_000_000), big.NewInt(123456789), salt
}

func TestComputeCommitment_Deterministic(t *testing.T) {
	authority, invocationID, ruleID, asset, amount, random, salt := baseInputs()

	first, err := ComputeCommitment(authority, invocationID, ruleID, asset, amount, random, salt)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ComputeCommitment(authority, invocationID, ruleID, asset, amount, random, salt)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("first=%s second=%s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("digest length=%d", len(first))
	}
}

func TestComputeCommitment_BindsEveryField(t *testing.T) {
	authority, invocationID, ruleID, asset, amount, random, salt := baseInputs()

	reference, err := ComputeCommitment(authority, invocationID, ruleID, asset, amount, random, salt)
	if err != nil {
		t.Fatal(err)
	}

	altInvocation := invocationID
	altInvocation[5] ^= 0xff
	altSalt := salt
	altSalt[5] ^= 0xff

	variants := map[string]func() (string, error){
		"authority": func() (string, error) {
			return ComputeCommitment("authority-2", invocationID, ruleID, asset, amount, random, salt)
		},
		"invocation_id": func() (string, error) {
			return ComputeCommitment(authority, altInvocation, ruleID, asset, amount, random, salt)
		},
		"rule_id": func() (string, error) {
			return ComputeCommitment(authority, invocationID, ruleID+1, asset, amount, random, salt)
		},
		"asset": func() (string, error) {
			return ComputeCommitment(authority, invocationID, ruleID, "WETH", amount, random, salt)
		},
		"amount": func() (string, error) {
			return ComputeCommitment(authority, invocationID, ruleID, asset, amount.Add(decimal.NewFromInt(1)), random, salt)
		},
		"random_value": func() (string, error) {
			return ComputeCommitment(authority, invocationID, ruleID, asset, amount, big.NewInt(123456790), salt)
		},
		"salt": func() (string, error) {
			return ComputeCommitment(authority, invocationID, ruleID, asset, amount, random, altSalt)
		},
	}
	for field, compute := range variants {
		got, err := compute()
		if err != nil {
			t.Fatalf("field=%s err=%v", field, err)
		}
		if got == reference {
			t.Fatalf("changing %s did not change the commitment", field)
		}
	}
}

func TestComputeCommitment_FieldBoundaries(t *testing.T) {
	// Length prefixes keep adjacent string fields from bleeding into each
	// other: ("ab","c") must not hash like ("a","bc").
	authority, invocationID, ruleID, _, amount, random, salt := baseInputs()

	first, err := ComputeCommitment(authority+"x", invocationID, ruleID, "USDC", amount, random, salt)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ComputeCommitment(authority, invocationID, ruleID, "xUSDC", amount, random, salt)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("field boundary collision")
	}
}

func TestComputeCommitment_RejectsBadValues(t *testing.T) {
	authority, invocationID, ruleID, asset, amount, _, salt := baseInputs()

	if _, err := ComputeCommitment(authority, invocationID, ruleID, asset, amount, nil, salt); err == nil {
		t.Fatal("nil random accepted")
	}
	if _, err := ComputeCommitment(authority, invocationID, ruleID, asset, amount, big.NewInt(-1), salt); err == nil {
		t.Fatal("negative random accepted")
	}
	wide := new(big.Int).Lsh(big.NewInt(1), 300)
	if _, err := ComputeCommitment(authority, invocationID, ruleID, asset, decimal.NewFromBigInt(wide, 0), big.NewInt(1), salt); err == nil {
		t.Fatal("overwide amount accepted")
	}
}

func TestParseHex32(t *testing.T) {
	want := "0102030405060708091011121314151617181920212223242526272829303132"
	got, err := ParseHex32("0x" + want)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x01 || got[31] != 0x32 {
		t.Fatalf("bytes=%x", got)
	}

	for _, bad := range []string{"", "0x01", want + "00", "zz" + want[2:]} {
		if _, err := ParseHex32(bad); err == nil {
			t.Fatalf("accepted %q", bad)
		}
	}
}

func TestParseRandom(t *testing.T) {
	v, err := ParseRandom("123456789")
	if err != nil || v.Int64() != 123456789 {
		t.Fatalf("v=%v err=%v", v, err)
	}
	v, err = ParseRandom("0xff")
	if err != nil || v.Int64() != 255 {
		t.Fatalf("v=%v err=%v", v, err)
	}
	for _, bad := range []string{"", "-5", "12.5", "0x"} {
		if _, err := ParseRandom(bad); err == nil {
			t.Fatalf("accepted %q", bad)
		}
	}
}
