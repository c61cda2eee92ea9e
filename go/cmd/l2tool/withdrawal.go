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

	"github.com/Fantom-foundation/tosca-l2/go/l2/syscontract"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	receiverFlag = &cli.StringFlag{
		Name:     "receiver",
		Usage:    "L1 address receiving the withdrawn funds",
		Required: true,
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "withdrawn amount in wei, in decimal",
		Value: "0",
	}
	senderFlag = &cli.StringFlag{
		Name:  "sender",
		Usage: "L2 address of the withdrawal initiator, only for withdrawals with message",
	}
	dataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "hex encoded message forwarded to the receiver, requires a sender",
	}
)

var WithdrawalCmd = cli.Command{
	Name:  "withdrawal",
	Usage: "Encodes and decodes messages releasing withdrawn funds on L1",
	Subcommands: []*cli.Command{
		{
			Action: doEncodeWithdrawal,
			Name:   "encode",
			Usage:  "Prints the ABI encoded message of a withdrawal",
			Flags: []cli.Flag{
				receiverFlag,
				valueFlag,
				senderFlag,
				dataFlag,
			},
		},
		{
			Action:    doDecodeWithdrawal,
			Name:      "decode",
			Usage:     "Prints the withdrawal carried by an ABI encoded message",
			ArgsUsage: "<message>",
		},
	},
}

func doEncodeWithdrawal(context *cli.Context) error {
	receiver, err := parseAddress(context.String(receiverFlag.Name))
	if err != nil {
		return err
	}
	value, err := uint256.FromDecimal(context.String(valueFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	withdrawal := syscontract.Withdrawal{
		Receiver: receiver,
		Value:    tosca.ValueFromUint256(value),
	}

	if context.IsSet(senderFlag.Name) {
		sender, err := parseAddress(context.String(senderFlag.Name))
		if err != nil {
			return err
		}
		withdrawal.Sender = &sender
		withdrawal.Data = common.FromHex(context.String(dataFlag.Name))
	} else if context.IsSet(dataFlag.Name) {
		return fmt.Errorf("a message requires a sender")
	}

	fmt.Fprintln(context.App.Writer, hexutil.Encode(syscontract.EncodeWithdrawalMessage(withdrawal)))
	return nil
}

func doDecodeWithdrawal(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one message argument, got %d", context.Args().Len())
	}
	message, err := hexutil.Decode(context.Args().First())
	if err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	withdrawal, err := syscontract.DecodeWithdrawalMessage(message)
	if err != nil {
		return err
	}

	out := context.App.Writer
	fmt.Fprintf(out, "receiver: %v\n", withdrawal.Receiver)
	fmt.Fprintf(out, "value:    %v\n", withdrawal.Value.ToUint256().Dec())
	if withdrawal.Sender != nil {
		fmt.Fprintf(out, "sender:   %v\n", *withdrawal.Sender)
		fmt.Fprintf(out, "data:     %v\n", hexutil.Encode(withdrawal.Data))
	}
	return nil
}

func parseAddress(text string) (tosca.Address, error) {
	if !common.IsHexAddress(text) {
		return tosca.Address{}, fmt.Errorf("invalid address %q", text)
	}
	return tosca.Address(common.HexToAddress(text)), nil
}
