// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

// GasMeter tracks the gas budget of a transaction or precompile call. Costs
// are charged eagerly and fail closed: a charge exceeding the remaining gas
// is rejected and leaves the meter untouched.
type GasMeter struct {
	limit     Gas
	remaining Gas
	refunded  Gas
}

func NewGasMeter(limit Gas) GasMeter {
	return GasMeter{limit: limit, remaining: limit}
}

// NewGasMeterWithUsage creates a meter for the given limit of which used gas
// is already consumed. Usage beyond the limit is capped at the limit.
func NewGasMeterWithUsage(limit, used Gas) GasMeter {
	used = max(0, min(used, limit))
	return GasMeter{limit: limit, remaining: limit - used}
}

func (g *GasMeter) Limit() Gas {
	return g.limit
}

func (g *GasMeter) Remaining() Gas {
	return g.remaining
}

// Spent is the consumed gas, not accounting for refunds.
func (g *GasMeter) Spent() Gas {
	return g.limit - g.remaining
}

func (g *GasMeter) Refunded() Gas {
	return g.refunded
}

// Used is the gas finally charged, i.e. spent gas minus refunds.
func (g *GasMeter) Used() Gas {
	return g.Spent() - g.refunded
}

// RecordCost charges the given cost. It returns false and charges nothing if
// the remaining gas is insufficient.
func (g *GasMeter) RecordCost(cost Gas) bool {
	if cost < 0 || cost > g.remaining {
		return false
	}
	g.remaining -= cost
	return true
}

// EraseCost returns gas not consumed by a sub-execution to the budget.
func (g *GasMeter) EraseCost(returned Gas) {
	g.remaining = min(g.limit, g.remaining+max(0, returned))
}

// SpendAll consumes the full remaining budget.
func (g *GasMeter) SpendAll() {
	g.remaining = 0
}

func (g *GasMeter) RecordRefund(refund Gas) {
	g.refunded += refund
}

// SetFinalRefund caps the accumulated refund at the fraction of spent gas
// allowed by the revision (EIP-3529 from London on).
func (g *GasMeter) SetFinalRefund(isLondon bool) {
	quotient := Gas(2)
	if isLondon {
		quotient = 5
	}
	g.refunded = max(0, min(g.refunded, g.Spent()/quotient))
}

// ClearRefund drops all recorded refunds.
func (g *GasMeter) ClearRefund() {
	g.refunded = 0
}

// EnsureMinimumUsage raises the used gas to the given floor, dropping any
// refund. The floor is capped at the limit.
func (g *GasMeter) EnsureMinimumUsage(floor Gas) {
	if g.Used() >= floor {
		return
	}
	g.refunded = 0
	g.remaining = g.limit - min(floor, g.limit)
}
