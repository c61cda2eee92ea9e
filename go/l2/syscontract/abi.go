// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package syscontract

import (
	"fmt"
	"math"
	"strings"

	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

const wordSize = 32

// Selectors fixed by the system contracts deployed on the settlement layer.
var (
	// setBytecodeDetailsEVM(address,bytes32,uint32,bytes32)
	setBytecodeDetailsSelector = [4]byte{0xf6, 0xec, 0xa0, 0xb0}
	// sendToL1(bytes)
	sendToL1Selector = [4]byte{0x62, 0xf8, 0x4b, 0x24}
	// withdraw(address)
	withdrawSelector = [4]byte{0x51, 0xcf, 0xf8, 0xd9}
	// withdrawWithMessage(address,bytes)
	withdrawWithMessageSelector = [4]byte{0x84, 0xbc, 0x3e, 0xb0}
	// finalizeEthWithdrawal(uint256,uint256,uint16,bytes,bytes32[])
	finalizeEthWithdrawalSelector = [4]byte{0x6c, 0x09, 0x60, 0xf9}
)

// L1MessageSentTopic is the signature of the event emitted for every message
// sent to L1.
var L1MessageSentTopic = tosca.Hash{
	0x3a, 0x36, 0xe4, 0x72, 0x91, 0xf4, 0x20, 0x1f, 0xaf, 0x13, 0x7f, 0xab, 0x08, 0x1d, 0x92, 0x29,
	0x5b, 0xce, 0x2d, 0x53, 0xbe, 0x2c, 0x6c, 0xa6, 0x8b, 0xa8, 0x2c, 0x7f, 0xaa, 0x9c, 0xe2, 0x41,
}

// deployerABI describes the deployer entry points without a fixed selector.
const deployerABI = `[{"type":"function","name":"setDeployedCodeEVM","stateMutability":"nonpayable","inputs":[{"name":"addr","type":"address"},{"name":"code","type":"bytes"}],"outputs":[]}]`

var setDeployedCodeSelector [4]byte

func init() {
	parsed, err := abi.JSON(strings.NewReader(deployerABI))
	if err != nil {
		panic(fmt.Errorf("failed to parse deployer ABI: %w", err))
	}
	method, exist := parsed.Methods["setDeployedCodeEVM"]
	if !exist {
		panic("unknown deployer method")
	}
	copy(setDeployedCodeSelector[:], method.ID)
}

func selectorOf(input []byte) ([4]byte, bool) {
	if len(input) < 4 {
		return [4]byte{}, false
	}
	return [4]byte(input[:4]), true
}

// decodeAddress reads an address from a word, requiring zero padding.
func decodeAddress(word []byte) (tosca.Address, bool) {
	for _, b := range word[:12] {
		if b != 0 {
			return tosca.Address{}, false
		}
	}
	return tosca.Address(word[12:wordSize]), true
}

// decodeUint32 reads a word that must fit into 32 bits.
func decodeUint32(word []byte) (uint32, bool) {
	for _, b := range word[:wordSize-4] {
		if b != 0 {
			return 0, false
		}
	}
	return uint32(word[28])<<24 | uint32(word[29])<<16 | uint32(word[30])<<8 | uint32(word[31]), true
}

// decodeTailBytes extracts a dynamic bytes parameter encoded in strict form:
// its offset, relative to the start of args, must point right behind the
// head of the given size, the declared length must be covered by args, and
// args must be a multiple of 32 bytes long.
func decodeTailBytes(args []byte, head int) ([]byte, bool) {
	if len(args) < head || len(args)%wordSize != 0 {
		return nil, false
	}
	offset, ok := decodeUint32(args[head-wordSize : head])
	if !ok || uint64(offset) != uint64(head) {
		return nil, false
	}
	lengthEnd := uint64(offset) + wordSize
	if uint64(len(args)) < lengthEnd {
		return nil, false
	}
	length, ok := decodeUint32(args[lengthEnd-wordSize : lengthEnd])
	if !ok {
		return nil, false
	}
	end := lengthEnd + uint64(length)
	if end > math.MaxUint32 || uint64(len(args)) < end {
		return nil, false
	}
	return args[lengthEnd:end], true
}

// encodeBytes produces the strict ABI encoding of a single bytes parameter.
func encodeBytes(data []byte) []byte {
	padded := (len(data) + wordSize - 1) / wordSize * wordSize
	res := make([]byte, 2*wordSize+padded)
	res[wordSize-1] = wordSize
	putUint64(res[wordSize:2*wordSize], uint64(len(data)))
	copy(res[2*wordSize:], data)
	return res
}

func putUint64(word []byte, value uint64) {
	for i := 0; i < 8; i++ {
		word[wordSize-1-i] = byte(value >> (8 * i))
	}
}

func addressToHash(address tosca.Address) tosca.Hash {
	var hash tosca.Hash
	copy(hash[12:], address[:])
	return hash
}
