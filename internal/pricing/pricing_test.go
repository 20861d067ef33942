package pricing

import "testing"

func TestValidateCustomAmount(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"100", 100, false},
		{" 500 ", 500, false},
		{"50000", 50000, false},
		{"99", 0, true},
		{"50001", 0, true},
		{"125", 0, true},
		{"150.5", 0, true},
		{"150,5", 0, true},
		{"-200", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := ValidateCustomAmount(c.input)
		if c.wantErr {
			if err == nil {
				t.Errorf("ValidateCustomAmount(%q) expected error, got %d", c.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateCustomAmount(%q) unexpected error: %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateCustomAmount(%q) = %d, want %d", c.input, got, c.want)
		}
	}
}

func TestStarsForRub(t *testing.T) {
	cases := []struct {
		rub  int
		want int
	}{
		{100, 50},
		{150, 75},
		{50000, 25000},
	}
	for _, c := range cases {
		if got := StarsForRub(c.rub); got != c.want {
			t.Errorf("StarsForRub(%d) = %d, want %d", c.rub, got, c.want)
		}
	}
}

func TestTierByCode(t *testing.T) {
	tier, ok := TierByCode("month")
	if !ok {
		t.Fatal("expected month tier to exist")
	}
	if tier.Price != 1700 {
		t.Errorf("month tier price = %v, want 1700", tier.Price)
	}
	if _, ok := TierByCode("year"); ok {
		t.Error("unexpected year tier")
	}
}
