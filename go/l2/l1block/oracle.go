// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package l1block

import (
	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

var refreshCounter = metrics.NewRegisteredCounter("l2/l1block/refresh", nil)

// Oracle caches the pricing parameters of the current block. It is not safe
// for concurrent use; transactions are processed one at a time.
type Oracle struct {
	info  Info
	valid bool
}

// Refresh makes sure the cached parameters belong to the given block and
// spec, re-reading them from state otherwise.
func (o *Oracle) Refresh(state tosca.WorldState, blockNumber int64, spec l2.SpecID) *Info {
	if o.valid && o.info.L2Block == blockNumber && o.info.spec == spec {
		return &o.info
	}
	previous := o.info.L2Block
	o.info = Fetch(state, blockNumber, spec)
	o.valid = true
	refreshCounter.Inc(1)
	log.Debug("Refreshed L1 block info",
		"previous", previous,
		"block", blockNumber,
		"spec", spec,
		"baseFee", &o.info.BaseFee,
		"emptyScalars", o.info.EmptyScalars,
	)
	return &o.info
}

// Info returns the cached parameters, or nil if none were fetched yet.
func (o *Oracle) Info() *Info {
	if !o.valid {
		return nil
	}
	return &o.info
}

// ClearTxL1Cost drops the memoized cost of the cached parameters.
func (o *Oracle) ClearTxL1Cost() {
	if o.valid {
		o.info.ClearTxL1Cost()
	}
}

// Invalidate forces the next Refresh to re-read the parameters.
func (o *Oracle) Invalidate() {
	o.valid = false
}
