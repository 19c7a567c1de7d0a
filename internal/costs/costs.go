// Package costs precalculates per-underlying trading costs for calendar
// spreads: combined margin, round-trip brokerage, and cost of carry.
//
// The numbers change slowly, so they are fetched by the precalc binary and
// cached in a CSV that the dashboard loads at startup.
package costs

import (
	"math"
	"time"

	"github.com/kmehta/futspread/internal/model"
)

// DefaultROIPercent is the assumed annual financing rate for cost of carry.
const DefaultROIPercent = 12.0

// MaxCacheAge is how old the cache may get before a warning is logged.
const MaxCacheAge = 24 * time.Hour

// CostOfCarry estimates the financing cost of holding the margin until the
// near expiry: margin * roi% * daysLeft/365, rounded to 2 decimals. Returns
// nil when margin is nil or the expiry is unset.
func CostOfCarry(margin *float64, expiryMS int64, roiPercent float64, now time.Time) *float64 {
	if margin == nil || expiryMS == 0 {
		return nil
	}

	expiry := time.UnixMilli(expiryMS)
	daysLeft := expiry.Sub(now).Hours() / 24
	if daysLeft < 0 {
		daysLeft = 0
	}

	cost := *margin * (roiPercent / 100) * (float64(int(daysLeft)) / 365)
	return model.Float(round2(cost))
}

// PerLot divides a total cost by the lot size for display, guarding a zero
// lot with 1. Nil propagates.
func PerLot(total *float64, lotSize int) *float64 {
	if total == nil {
		return nil
	}
	if lotSize == 0 {
		lotSize = 1
	}
	return model.Float(round2(*total / float64(lotSize)))
}

// SumCharges adds forward and reverse leg charges, treating nil legs as zero.
// Returns nil only when both legs are nil.
func SumCharges(forward, reverse *float64) *float64 {
	if forward == nil && reverse == nil {
		return nil
	}
	var total float64
	if forward != nil {
		total += *forward
	}
	if reverse != nil {
		total += *reverse
	}
	return model.Float(round2(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
