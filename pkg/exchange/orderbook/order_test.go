package orderbook

import (
	"errors"
	"testing"
)

func TestOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Order, error)
		wantErr bool
	}{
		{
			name:  "valid limit",
			build: func() (*Order, error) { return NewLimitOrder("T-001", "ACME", Buy, 10, 10000) },
		},
		{
			name:  "valid market",
			build: func() (*Order, error) { return NewMarketOrder("T-001", "ACME", Sell, 5) },
		},
		{
			name:    "zero quantity",
			build:   func() (*Order, error) { return NewLimitOrder("T-001", "ACME", Buy, 0, 10000) },
			wantErr: true,
		},
		{
			name:    "negative quantity",
			build:   func() (*Order, error) { return NewMarketOrder("T-001", "ACME", Buy, -3) },
			wantErr: true,
		},
		{
			name:    "limit without price",
			build:   func() (*Order, error) { return NewLimitOrder("T-001", "ACME", Buy, 10, 0) },
			wantErr: true,
		},
		{
			name:    "negative limit price",
			build:   func() (*Order, error) { return NewLimitOrder("T-001", "ACME", Sell, 10, -100) },
			wantErr: true,
		},
		{
			name:    "empty trader id",
			build:   func() (*Order, error) { return NewLimitOrder("", "ACME", Buy, 10, 10000) },
			wantErr: true,
		},
		{
			name:    "empty symbol",
			build:   func() (*Order, error) { return NewMarketOrder("T-001", "", Buy, 10) },
			wantErr: true,
		},
		{
			name:    "bad side",
			build:   func() (*Order, error) { return NewLimitOrder("T-001", "ACME", Side(9), 10, 10000) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := tt.build()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got order %+v", o)
				}
				if !errors.Is(err, ErrInvalidOrder) {
					t.Errorf("error %v does not wrap ErrInvalidOrder", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if o.ID == 0 {
				t.Error("order id not assigned")
			}
		})
	}
}

func TestOrderIDsMonotonic(t *testing.T) {
	a, _ := NewLimitOrder("T-001", "ACME", Buy, 1, 100)
	b, _ := NewLimitOrder("T-001", "ACME", Buy, 1, 100)
	if b.ID <= a.ID {
		t.Errorf("ids not monotonic: %d then %d", a.ID, b.ID)
	}
}

func TestMarketOrderCarriesNoPrice(t *testing.T) {
	o, err := NewMarketOrder("T-001", "ACME", Buy, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Price != 0 {
		t.Errorf("market order has price %d, want 0", o.Price)
	}
	if o.Type != Market {
		t.Errorf("type = %v, want market", o.Type)
	}
}

func TestTradeNotional(t *testing.T) {
	tr := Trade{Qty: 10, Price: 10000}
	if got := tr.Notional(); got != 100000 {
		t.Errorf("notional = %d, want 100000", got)
	}
}
