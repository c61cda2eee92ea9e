// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/l2/l1block"
	"github.com/Fantom-foundation/tosca-l2/go/state"
	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	baseFeeFlag = &cli.Uint64Flag{
		Name:  "base-fee",
		Usage: "L1 base fee in wei",
	}
	scalarFlag = &cli.Uint64Flag{
		Name:  "scalar",
		Usage: "base fee scalar, in millionths",
		Value: 1_000_000,
	}
	overheadFlag = &cli.Uint64Flag{
		Name:  "overhead",
		Usage: "fixed data gas overhead, only used by the Initial rules",
	}
	blobBaseFeeFlag = &cli.Uint64Flag{
		Name:  "blob-base-fee",
		Usage: "L1 blob base fee in wei",
	}
	blobScalarFlag = &cli.Uint64Flag{
		Name:  "blob-scalar",
		Usage: "blob base fee scalar, in millionths",
	}
)

var l1CostFlags = []cli.Flag{
	configFlag,
	specFlag,
	baseFeeFlag,
	scalarFlag,
	overheadFlag,
	blobBaseFeeFlag,
	blobScalarFlag,
}

var L1CostCmd = cli.Command{
	Action:    doL1Cost,
	Before:    loadConfigFile(l1CostFlags),
	Name:      "l1-cost",
	Usage:     "Computes the L1 data fee of the given hex encoded transaction data",
	ArgsUsage: "<data>",
	Flags:     l1CostFlags,
}

func doL1Cost(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one data argument, got %d", context.Args().Len())
	}
	data := common.FromHex(context.Args().First())

	config, err := specFlag.Fetch(context)
	if err != nil {
		return err
	}
	spec := config.Spec

	params := l1block.Info{
		BaseFee:       *uint256.NewInt(context.Uint64(baseFeeFlag.Name)),
		BaseFeeScalar: *uint256.NewInt(context.Uint64(scalarFlag.Name)),
	}
	if spec.IsEnabledIn(l2.BlobPricing) {
		params.BlobBaseFee = uint256.NewInt(context.Uint64(blobBaseFeeFlag.Name))
		params.BlobBaseFeeScalar = uint256.NewInt(context.Uint64(blobScalarFlag.Name))
	} else {
		params.FeeOverhead = uint256.NewInt(context.Uint64(overheadFlag.Name))
	}

	// the parameters take the same path through the L1 block account as
	// on chain
	world := state.NewMemory(state.WorldState{
		l2.L1BlockAddress: state.Account{Storage: params.Storage()},
	})
	info := l1block.Fetch(world, 0, spec)
	cost := info.CalculateTxL1Cost(data)

	out := context.App.Writer
	fmt.Fprintf(out, "rules:    %v\n", spec)
	fmt.Fprintf(out, "size:     %d bytes\n", len(data))
	fmt.Fprintf(out, "data gas: %v\n", l1block.DataGas(data))
	fmt.Fprintf(out, "L1 cost:  %v wei (%swei)\n", cost, unitconv.FormatPrefix(toFloat(cost), unitconv.SI, 2))
	return nil
}

func toFloat(value *uint256.Int) float64 {
	result, _ := new(big.Float).SetInt(value.ToBig()).Float64()
	return result
}
