package session

import (
	"math"
	"time"

	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/pkg/config"
)

// DefaultBillingConfig mirrors the configuration defaults.
func DefaultBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		IdleFeePerMinute:          1000,
		USDToVNDRate:              24000,
		USDPriceThreshold:         10,
		MaxSessionKWh:             200,
		DefaultBatteryCapacityKWh: 100,
		Currency:                  "VND",
	}
}

// Billing turns a stopped session into energy and cost figures.
type Billing struct {
	cfg config.BillingConfig
}

// NewBilling fills unset fields of cfg with the defaults. A zero idle fee is
// kept as configured.
func NewBilling(cfg config.BillingConfig) *Billing {
	def := DefaultBillingConfig()
	if cfg.IdleFeePerMinute < 0 {
		cfg.IdleFeePerMinute = 0
	}
	if cfg.USDToVNDRate <= 0 {
		cfg.USDToVNDRate = def.USDToVNDRate
	}
	if cfg.USDPriceThreshold <= 0 {
		cfg.USDPriceThreshold = def.USDPriceThreshold
	}
	if cfg.MaxSessionKWh <= 0 {
		cfg.MaxSessionKWh = def.MaxSessionKWh
	}
	if cfg.DefaultBatteryCapacityKWh <= 0 {
		cfg.DefaultBatteryCapacityKWh = def.DefaultBatteryCapacityKWh
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	return &Billing{cfg: cfg}
}

// Capacity returns the vehicle's battery capacity or the default one.
func (b *Billing) Capacity(vehicle *domain.Vehicle) float64 {
	if vehicle == nil || vehicle.BatteryCapacityKWh <= 0 {
		return b.cfg.DefaultBatteryCapacityKWh
	}
	return vehicle.BatteryCapacityKWh
}

// MaxChargeable is the energy needed to go from initial% to target%.
// A missing initial percentage counts as an empty battery.
func (b *Billing) MaxChargeable(capacityKWh float64, initialPercent *float64, targetPercent float64) float64 {
	initial := 0.0
	if initialPercent != nil {
		initial = *initialPercent
	}
	if targetPercent <= 0 {
		targetPercent = 100
	}
	kwh := (targetPercent - initial) / 100 * capacityKWh
	if kwh < 0 {
		return 0
	}
	return kwh
}

// EstimateCompletion returns when the battery should reach the target at
// full point power, or nil when the inputs are not known.
func (b *Billing) EstimateCompletion(start time.Time, vehicle *domain.Vehicle, initialPercent *float64, targetPercent, powerKW float64) *time.Time {
	if vehicle == nil || initialPercent == nil || powerKW <= 0 {
		return nil
	}
	kwh := b.MaxChargeable(b.Capacity(vehicle), initialPercent, targetPercent)
	eta := start.Add(time.Duration(kwh / powerKW * float64(time.Hour)))
	return &eta
}

// PricePerKWh converts prices that look like USD into VND.
func (b *Billing) PricePerKWh(price float64) float64 {
	if price < b.cfg.USDPriceThreshold {
		return price * b.cfg.USDToVNDRate
	}
	return price
}

// Charge is the frozen outcome of a stop.
type Charge struct {
	EnergyKWh       float64
	MeterEnd        float64
	PricePerKWh     float64
	EnergyCost      float64
	IdleFee         float64
	TotalCost       float64
	DurationMinutes float64
}

// ChargeInput is everything the stop path knows about a session.
type ChargeInput struct {
	Session     *domain.ChargingSession
	PowerKW     float64
	CapacityKWh float64
	// StationPrice is the raw configured price, before USD scaling.
	StationPrice float64
	MeterEnd     *float64
	IdleMinutes  int
	End          time.Time
}

// Compute bills a session. With a meter reading the metered energy is used,
// otherwise energy is estimated from point power and elapsed time. Either way
// it is capped by the chargeable capacity and the per-session maximum.
func (b *Billing) Compute(in ChargeInput) (*Charge, error) {
	s := in.Session
	maxChargeable := b.MaxChargeable(in.CapacityKWh, s.InitialBatteryPercent, s.TargetBatteryPercent)
	elapsed := in.End.Sub(s.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}

	var energy float64
	if in.MeterEnd != nil {
		if *in.MeterEnd < s.MeterStart {
			return nil, domain.NewValidation("meterEnd (%.3f) must be >= meterStart (%.3f)", *in.MeterEnd, s.MeterStart)
		}
		energy = *in.MeterEnd - s.MeterStart
	} else {
		energy = in.PowerKW * elapsed.Hours()
	}
	energy = math.Min(energy, math.Min(maxChargeable, b.cfg.MaxSessionKWh))
	if energy < 0 {
		energy = 0
	}

	price := b.PricePerKWh(in.StationPrice)
	energyCost := energy * price
	idleFee := float64(in.IdleMinutes) * b.cfg.IdleFeePerMinute

	return &Charge{
		EnergyKWh:       energy,
		MeterEnd:        s.MeterStart + energy,
		PricePerKWh:     price,
		EnergyCost:      energyCost,
		IdleFee:         idleFee,
		TotalCost:       math.Round(energyCost + idleFee),
		DurationMinutes: math.Round(elapsed.Minutes()*100) / 100,
	}, nil
}

// Summary renders a charge as the receipt returned to the caller.
func (b *Billing) Summary(sessionID string, idleMinutes int, c *Charge) *domain.CostSummary {
	return &domain.CostSummary{
		SessionID:       sessionID,
		EnergyKWh:       c.EnergyKWh,
		PricePerKWh:     c.PricePerKWh,
		EnergyCost:      c.EnergyCost,
		IdleMinutes:     idleMinutes,
		IdleFee:         c.IdleFee,
		TotalCost:       c.TotalCost,
		DurationMinutes: c.DurationMinutes,
		Currency:        b.cfg.Currency,
	}
}

// SummaryOf rebuilds the receipt of a completed session from its frozen row.
func (b *Billing) SummaryOf(s *domain.ChargingSession, stationPrice float64) *domain.CostSummary {
	c := &Charge{
		EnergyKWh:  s.EnergyConsumedKWh,
		IdleFee:    s.IdleFee,
		TotalCost:  s.Cost,
		EnergyCost: s.Cost - s.IdleFee,
	}
	if s.EnergyConsumedKWh > 0 {
		c.PricePerKWh = c.EnergyCost / s.EnergyConsumedKWh
	} else {
		c.PricePerKWh = b.PricePerKWh(stationPrice)
	}
	if s.EndTime != nil {
		c.DurationMinutes = math.Round(s.EndTime.Sub(s.StartTime).Minutes()*100) / 100
	}
	return b.Summary(s.ID, s.IdleMinutes, c)
}
