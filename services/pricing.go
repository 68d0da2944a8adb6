package services

import (
	"math"

	"stayfinder-service/config"
	"stayfinder-service/domain"
)

type Pricer struct {
	cfg config.Pricing
}

func NewPricer(cfg config.Pricing) Pricer {
	return Pricer{cfg: cfg}
}

func (p Pricer) MaxGuests() int {
	return p.cfg.MaxGuests
}

// Quote prices a stay: nightly rate times nights, flat cleaning and service
// fees, and a flat fee for every guest above the threshold.
func (p Pricer) Quote(pricePerNight float64, nights, guests int) domain.PriceBreakdown {
	extra := 0.0
	if guests > p.cfg.GuestThreshold {
		extra = float64(guests-p.cfg.GuestThreshold) * p.cfg.ExtraGuestFee
	}
	base := float64(nights) * pricePerNight
	return domain.PriceBreakdown{
		Nights:        nights,
		PricePerNight: pricePerNight,
		BasePrice:     base,
		CleaningFee:   p.cfg.CleaningFee,
		ServiceFee:    p.cfg.ServiceFee,
		ExtraGuestFee: extra,
		Total:         base + p.cfg.CleaningFee + p.cfg.ServiceFee + extra,
	}
}

// ToMinorUnits converts a currency amount to its smallest unit, e.g. rupees to paise.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func SameAmount(a, b float64) bool {
	return ToMinorUnits(a) == ToMinorUnits(b)
}
