// Property-based tests for the ledger rules. The database round trips are
// simulated; the properties exercise the same validation and arithmetic the
// services apply.
package service

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

// simulateTransfer mirrors TransferService.Transfer without the database.
func simulateTransfer(senderBalance, receiverBalance, amount, senderID, receiverID int64) (int64, int64, error) {
	if amount <= 0 {
		return senderBalance, receiverBalance, ErrInvalidAmount
	}
	if senderID == receiverID {
		return senderBalance, receiverBalance, ErrSelfTransfer
	}
	if senderBalance < amount {
		return senderBalance, receiverBalance, ErrInsufficientFunds
	}
	return senderBalance - amount, receiverBalance + amount, nil
}

// simulateEscrowSettle mirrors one stake lifecycle: escrow at commitment,
// then a settlement credit of zero or more.
func simulateEscrowSettle(balance, stake, credit int64) (int64, error) {
	if stake <= 0 {
		return balance, ErrInvalidAmount
	}
	if balance < stake {
		return balance, ErrInsufficientFunds
	}
	return balance - stake + credit, nil
}

func TestTransferConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		senderBalance := rapid.Int64Range(1, 1_000_000).Draw(t, "senderBalance")
		receiverBalance := rapid.Int64Range(0, 1_000_000).Draw(t, "receiverBalance")
		amount := rapid.Int64Range(1, senderBalance).Draw(t, "amount")
		senderID := rapid.Int64Range(1, 1_000_000).Draw(t, "senderID")
		receiverID := rapid.Int64Range(1, 1_000_000).Filter(func(id int64) bool {
			return id != senderID
		}).Draw(t, "receiverID")

		after1, after2, err := simulateTransfer(senderBalance, receiverBalance, amount, senderID, receiverID)
		if err != nil {
			t.Fatalf("valid transfer failed: %v", err)
		}
		if after1 != senderBalance-amount {
			t.Fatalf("sender balance: want %d, got %d", senderBalance-amount, after1)
		}
		if after2 != receiverBalance+amount {
			t.Fatalf("receiver balance: want %d, got %d", receiverBalance+amount, after2)
		}
		if after1+after2 != senderBalance+receiverBalance {
			t.Fatalf("total not conserved: before=%d after=%d", senderBalance+receiverBalance, after1+after2)
		}
		if after1 < 0 {
			t.Fatalf("sender went negative: %d", after1)
		}
	})
}

func TestTransferRejectionLeavesBalancesUntouched(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		senderBalance := rapid.Int64Range(0, 1_000_000).Draw(t, "senderBalance")
		receiverBalance := rapid.Int64Range(0, 1_000_000).Draw(t, "receiverBalance")
		amount := rapid.Int64Range(-1_000, 2_000_000).Draw(t, "amount")
		senderID := rapid.Int64Range(1, 1_000).Draw(t, "senderID")
		receiverID := rapid.Int64Range(1, 1_000).Draw(t, "receiverID")

		after1, after2, err := simulateTransfer(senderBalance, receiverBalance, amount, senderID, receiverID)

		switch {
		case amount <= 0:
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("want ErrInvalidAmount, got %v", err)
			}
		case senderID == receiverID:
			if !errors.Is(err, ErrSelfTransfer) {
				t.Fatalf("want ErrSelfTransfer, got %v", err)
			}
		case senderBalance < amount:
			if !errors.Is(err, ErrInsufficientFunds) {
				t.Fatalf("want ErrInsufficientFunds, got %v", err)
			}
		default:
			if err != nil {
				t.Fatalf("valid transfer failed: %v", err)
			}
			return
		}

		if after1 != senderBalance || after2 != receiverBalance {
			t.Fatalf("failed transfer moved money: %d/%d -> %d/%d",
				senderBalance, receiverBalance, after1, after2)
		}
	})
}

func TestEscrowSettleNeverGoesNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		balance := rapid.Int64Range(0, 1_000_000).Draw(t, "balance")
		stake := rapid.Int64Range(1, 1_000_000).Draw(t, "stake")
		// Settlement credit ranges from total loss to a 35x number hit.
		credit := rapid.Int64Range(0, stake*36).Draw(t, "credit")

		after, err := simulateEscrowSettle(balance, stake, credit)
		if balance < stake {
			if !errors.Is(err, ErrInsufficientFunds) {
				t.Fatalf("want ErrInsufficientFunds, got %v", err)
			}
			if after != balance {
				t.Fatalf("rejected stake changed balance: %d -> %d", balance, after)
			}
			return
		}
		if err != nil {
			t.Fatalf("escrow failed: %v", err)
		}
		if after < 0 {
			t.Fatalf("balance went negative: %d", after)
		}
		if after != balance-stake+credit {
			t.Fatalf("settlement arithmetic: want %d, got %d", balance-stake+credit, after)
		}
	})
}
