package ledger

import (
	"math/big"
	"reflect"
	"testing"

	"ledgerReplay/internal/model"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrC = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func TestTransferRoundTrip(t *testing.T) {
	l := New()
	l.Transfer(addrA, addrB, big.NewInt(100))
	l.Transfer(addrB, addrA, big.NewInt(40))

	a, ok := l.Get(addrA)
	if !ok {
		t.Fatalf("account A missing")
	}
	if a.Balance.Cmp(big.NewInt(-60)) != 0 || a.TransactionCount != 2 {
		t.Fatalf("account A mismatch: %s tx=%d", a.Balance, a.TransactionCount)
	}

	b, ok := l.Get(addrB)
	if !ok {
		t.Fatalf("account B missing")
	}
	if b.Balance.Cmp(big.NewInt(60)) != 0 || b.TransactionCount != 2 {
		t.Fatalf("account B mismatch: %s tx=%d", b.Balance, b.TransactionCount)
	}

	if l.Sum().Sign() != 0 {
		t.Fatalf("internal transfers should sum to zero, got %s", l.Sum())
	}
}

func TestTransferBeyondUint64(t *testing.T) {
	l := New()
	amount, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	l.Transfer(addrA, addrB, amount)
	l.Transfer(addrA, addrB, amount)

	b, _ := l.Get(addrB)
	want := new(big.Int).Mul(amount, big.NewInt(2))
	if b.Balance.Cmp(want) != 0 {
		t.Fatalf("balance mismatch: %s != %s", b.Balance, want)
	}
}

func TestSelfTransferCountsTwice(t *testing.T) {
	l := New()
	l.Transfer(addrA, addrA, big.NewInt(5))

	a, _ := l.Get(addrA)
	if a.Balance.Sign() != 0 || a.TransactionCount != 2 {
		t.Fatalf("self transfer mismatch: %s tx=%d", a.Balance, a.TransactionCount)
	}
}

func TestNormalizeAddress(t *testing.T) {
	mixed := "0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa"
	if got := NormalizeAddress(mixed); got != addrA {
		t.Fatalf("normalize mismatch: %s", got)
	}
	if got := NormalizeAddress("  " + addrB + " "); got != addrB {
		t.Fatalf("normalize trim mismatch: %s", got)
	}
}

func TestCacheTxHashWriteOnce(t *testing.T) {
	l := New()
	if l.CacheTxHash(addrA, "0x01") {
		t.Fatalf("cache on missing account should fail")
	}

	l.Transfer(addrA, addrB, big.NewInt(1))
	if !l.CacheTxHash(addrA, "0x01") {
		t.Fatalf("first cache should succeed")
	}
	if l.CacheTxHash(addrA, "0x02") {
		t.Fatalf("second cache should be ignored")
	}
	if !l.HasTxHash(addrA) || l.HasTxHash(addrB) {
		t.Fatalf("has tx hash mismatch")
	}

	a, _ := l.Get(addrA)
	if a.CachedTxHash != "0x01" {
		t.Fatalf("cached hash mismatch: %s", a.CachedTxHash)
	}
}

func TestRowsSortedCopy(t *testing.T) {
	l := New()
	l.Transfer(addrC, addrA, big.NewInt(7))
	l.Transfer(addrB, addrC, big.NewInt(3))

	rows := l.Rows()
	if len(rows) != 3 {
		t.Fatalf("rows len mismatch: %d", len(rows))
	}
	if rows[0].Address != addrA || rows[1].Address != addrB || rows[2].Address != addrC {
		t.Fatalf("rows not sorted: %+v", rows)
	}

	rows[0].Balance.SetInt64(1000)
	a, _ := l.Get(addrA)
	if a.Balance.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("rows must not alias ledger balances")
	}
}

func TestRestoreMatchesRows(t *testing.T) {
	l := New()
	l.Transfer(addrA, addrB, big.NewInt(100))
	l.Transfer(addrB, addrC, big.NewInt(30))
	l.CacheTxHash(addrA, "0xfeed")

	restored := New()
	restored.Restore(l.Rows())

	if !reflect.DeepEqual(l.Rows(), restored.Rows()) {
		t.Fatalf("restore mismatch: %+v != %+v", l.Rows(), restored.Rows())
	}
}

func TestRestoreMergesCaseVariants(t *testing.T) {
	l := New()
	l.Restore([]model.ReportRow{
		{Address: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", Balance: big.NewInt(5), TransactionCount: 1},
		{Address: addrA, Balance: big.NewInt(-2), TransactionCount: 2, CachedTxHash: "0x01"},
	})

	if l.Len() != 1 {
		t.Fatalf("expected one account, got %d", l.Len())
	}
	a, _ := l.Get(addrA)
	if a.Balance.Cmp(big.NewInt(3)) != 0 || a.TransactionCount != 3 || a.CachedTxHash != "0x01" {
		t.Fatalf("merged account mismatch: %+v", a)
	}
}
