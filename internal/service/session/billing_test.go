package session

import (
	"math"
	"testing"
	"time"

	"github.com/seu-repo/evcharge/internal/domain"
)

func ptr(f float64) *float64 { return &f }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// hours converts a fractional hour count at run time; constant fractions do
// not convert to time.Duration.
func hours(h float64) time.Duration { return time.Duration(h * float64(time.Hour)) }

func TestPricePerKWh_USDThreshold(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())

	tests := []struct {
		price float64
		want  float64
	}{
		{0.35, 8400},
		{9.99, 239760},
		{10, 10},
		{3500, 3500},
	}
	for _, tt := range tests {
		if got := b.PricePerKWh(tt.price); !near(got, tt.want) {
			t.Errorf("PricePerKWh(%v): expected %v, got %v", tt.price, tt.want, got)
		}
	}
}

func TestMaxChargeable(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())

	if got := b.MaxChargeable(60, ptr(20), 80); !near(got, 36) {
		t.Errorf("Expected 36, got %v", got)
	}
	if got := b.MaxChargeable(100, nil, 100); !near(got, 100) {
		t.Errorf("Expected 100 for an empty battery, got %v", got)
	}
	if got := b.MaxChargeable(60, ptr(90), 80); got != 0 {
		t.Errorf("Expected 0 when already past target, got %v", got)
	}
}

func TestCompute_MeteredEnergy(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := &domain.ChargingSession{ID: "s1", StartTime: start, MeterStart: 10, TargetBatteryPercent: 100}

	c, err := b.Compute(ChargeInput{
		Session:      s,
		PowerKW:      7,
		CapacityKWh:  100,
		StationPrice: 0.35,
		MeterEnd:     ptr(25),
		End:          start.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !near(c.EnergyKWh, 15) {
		t.Errorf("Expected 15 kWh, got %v", c.EnergyKWh)
	}
	if c.TotalCost != 126000 {
		t.Errorf("Expected 126000, got %v", c.TotalCost)
	}
	if !near(c.MeterEnd, 25) {
		t.Errorf("Expected meter end 25, got %v", c.MeterEnd)
	}
	if c.DurationMinutes != 120 {
		t.Errorf("Expected 120 minutes, got %v", c.DurationMinutes)
	}
}

func TestCompute_ElapsedEnergyCapped(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := &domain.ChargingSession{
		ID:                    "s1",
		StartTime:             start,
		InitialBatteryPercent: ptr(20),
		TargetBatteryPercent:  80,
	}

	// 40 kWh worth of time at 7 kW
	end := start.Add(hours(40.0 / 7.0))
	c, err := b.Compute(ChargeInput{Session: s, PowerKW: 7, CapacityKWh: 60, StationPrice: 3500, End: end})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !near(c.EnergyKWh, 36) {
		t.Errorf("Expected energy capped at 36, got %v", c.EnergyKWh)
	}
	if !near(c.MeterEnd, 36) {
		t.Errorf("Expected meter end 36, got %v", c.MeterEnd)
	}
}

func TestCompute_SessionMaximum(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := &domain.ChargingSession{ID: "s1", StartTime: start, TargetBatteryPercent: 100}

	c, err := b.Compute(ChargeInput{Session: s, PowerKW: 350, CapacityKWh: 300, StationPrice: 3500, End: start.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !near(c.EnergyKWh, 200) {
		t.Errorf("Expected 200 kWh cap, got %v", c.EnergyKWh)
	}
}

func TestCompute_RoundTripChargesIdleFeeOnly(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := &domain.ChargingSession{ID: "s1", StartTime: start, MeterStart: 42, TargetBatteryPercent: 100}

	c, err := b.Compute(ChargeInput{
		Session:      s,
		PowerKW:      7,
		CapacityKWh:  100,
		StationPrice: 0.35,
		MeterEnd:     ptr(42),
		IdleMinutes:  7,
		End:          start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.EnergyKWh != 0 {
		t.Errorf("Expected 0 kWh, got %v", c.EnergyKWh)
	}
	if c.TotalCost != 7000 || c.IdleFee != 7000 {
		t.Errorf("Expected idle fee only (7000), got total %v idle %v", c.TotalCost, c.IdleFee)
	}
}

func TestCompute_MeterBackwards(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())
	s := &domain.ChargingSession{ID: "s1", StartTime: time.Now(), MeterStart: 50}

	_, err := b.Compute(ChargeInput{Session: s, MeterEnd: ptr(49), End: time.Now()})
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestEstimateCompletion(t *testing.T) {
	b := NewBilling(DefaultBillingConfig())
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	v := &domain.Vehicle{ID: "v1", BatteryCapacityKWh: 60}

	eta := b.EstimateCompletion(start, v, ptr(20), 80, 7)
	if eta == nil {
		t.Fatal("Expected an estimate")
	}
	want := start.Add(hours(36.0 / 7.0))
	if d := eta.Sub(want); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("Expected %v, got %v", want, *eta)
	}

	if b.EstimateCompletion(start, nil, ptr(20), 80, 7) != nil {
		t.Error("Expected no estimate without a vehicle")
	}
	if b.EstimateCompletion(start, v, nil, 80, 7) != nil {
		t.Error("Expected no estimate without an initial percentage")
	}
}
