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
	"bytes"
	"slices"
	"testing"

	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/processor/floria"
	"github.com/Fantom-foundation/tosca-l2/go/state"
	"github.com/Fantom-foundation/tosca-l2/go/tosca"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/mock/gomock"
)

func mustType(t *testing.T, name string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		t.Fatalf("failed to create ABI type %s: %v", name, err)
	}
	return typ
}

// pack encodes values with geth's ABI encoder and prefixes the selector.
func pack(t *testing.T, selector [4]byte, types []string, values ...any) []byte {
	t.Helper()
	arguments := abi.Arguments{}
	for _, name := range types {
		arguments = append(arguments, abi.Argument{Type: mustType(t, name)})
	}
	args, err := arguments.Pack(values...)
	if err != nil {
		t.Fatalf("failed to pack arguments: %v", err)
	}
	return append(selector[:], args...)
}

func TestSelectors_MatchSignatures(t *testing.T) {
	tests := map[string][4]byte{
		"setBytecodeDetailsEVM(address,bytes32,uint32,bytes32)":         setBytecodeDetailsSelector,
		"setDeployedCodeEVM(address,bytes)":                             setDeployedCodeSelector,
		"sendToL1(bytes)":                                               sendToL1Selector,
		"withdraw(address)":                                             withdrawSelector,
		"withdrawWithMessage(address,bytes)":                            withdrawWithMessageSelector,
		"finalizeEthWithdrawal(uint256,uint256,uint16,bytes,bytes32[])": finalizeEthWithdrawalSelector,
	}
	for signature, selector := range tests {
		t.Run(signature, func(t *testing.T) {
			if want := [4]byte(crypto.Keccak256([]byte(signature))[:4]); want != selector {
				t.Errorf("unexpected selector, wanted %x, got %x", want, selector)
			}
		})
	}
	if want := tosca.Hash(crypto.Keccak256Hash([]byte("L1MessageSent(address,bytes32,bytes)"))); want != L1MessageSentTopic {
		t.Errorf("unexpected topic, wanted %v, got %v", want, L1MessageSentTopic)
	}
}

func TestDecodeTailBytes_EnforcesStrictEncoding(t *testing.T) {
	valid := encodeBytes([]byte{1, 2, 3})
	tests := map[string]struct {
		modify func([]byte) []byte
		ok     bool
	}{
		"valid": {
			modify: func(b []byte) []byte { return b },
			ok:     true,
		},
		"trailing partial word": {
			modify: func(b []byte) []byte { return append(b, 0) },
		},
		"wrong offset": {
			modify: func(b []byte) []byte { b[wordSize-1] = 2 * wordSize; return b },
		},
		"length beyond input": {
			modify: func(b []byte) []byte { b[2*wordSize-1] = 33; return b },
		},
		"offset exceeding 32 bits": {
			modify: func(b []byte) []byte { b[0] = 1; return b },
		},
		"truncated": {
			modify: func(b []byte) []byte { return b[:wordSize] },
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			data, ok := decodeTailBytes(test.modify(bytes.Clone(valid)), wordSize)
			if ok != test.ok {
				t.Fatalf("unexpected result, wanted %t, got %t", test.ok, ok)
			}
			if ok && !bytes.Equal(data, []byte{1, 2, 3}) {
				t.Errorf("unexpected data %x", data)
			}
		})
	}
}

func TestEncodeBytes_MatchesAbiEncoding(t *testing.T) {
	for _, size := range []int{0, 1, 31, 32, 33, 100} {
		data := bytes.Repeat([]byte{0xAB}, size)
		want := pack(t, [4]byte{}, []string{"bytes"}, data)[4:]
		if got := encodeBytes(data); !bytes.Equal(want, got) {
			t.Errorf("unexpected encoding of %d bytes, wanted %x, got %x", size, want, got)
		}
	}
}

func TestProvider_DispatchesSystemContractsAndBase(t *testing.T) {
	ctrl := gomock.NewController(t)
	base := floria.NewMockPrecompileProvider(ctrl)
	context := state.NewMemory(nil)
	provider := NewProvider(base, nil)

	other := tosca.Address{0x01}
	call := floria.PrecompileCall{Address: other, Gas: 100}
	base.EXPECT().Run(context, call).Return(tosca.CallResult{Success: true, GasLeft: 40}, true)
	if result, found := provider.Run(context, call); !found || result.GasLeft != 40 {
		t.Errorf("call not forwarded to base, got %v %t", result, found)
	}

	// system contracts are not forwarded
	call = floria.PrecompileCall{Address: l2.L1MessengerAddress, Gas: 100}
	if result, found := provider.Run(context, call); !found || result.Success {
		t.Errorf("empty input should be rejected, got %v %t", result, found)
	}

	call = floria.PrecompileCall{Address: l2.BaseTokenAddress, Gas: -1}
	if result, found := provider.Run(context, call); !found || !sameResult(result, tosca.CallResult{}) {
		t.Errorf("negative gas should run out of gas, got %v", result)
	}
}

func TestProvider_ContainsAndWarmAddresses(t *testing.T) {
	ctrl := gomock.NewController(t)
	base := floria.NewMockPrecompileProvider(ctrl)
	provider := NewProvider(base, nil)
	revision := tosca.R14_Prague

	base.EXPECT().Contains(revision, tosca.Address{0x01}).Return(true)
	base.EXPECT().Contains(revision, tosca.Address{0x02}).Return(false)
	base.EXPECT().WarmAddresses(revision).Return([]tosca.Address{{0x01}})

	for _, address := range []tosca.Address{l2.ContractDeployerAddress, l2.L1MessengerAddress, l2.BaseTokenAddress} {
		if !provider.Contains(revision, address) {
			t.Errorf("system contract %v not contained", address)
		}
	}
	if !provider.Contains(revision, tosca.Address{0x01}) {
		t.Errorf("base contract not contained")
	}
	if provider.Contains(revision, tosca.Address{0x02}) {
		t.Errorf("unknown address reported as contained")
	}

	want := []tosca.Address{{0x01}, l2.ContractDeployerAddress, l2.L1MessengerAddress, l2.BaseTokenAddress}
	if got := provider.WarmAddresses(revision); !slices.Equal(want, got) {
		t.Errorf("unexpected warm addresses, wanted %v, got %v", want, got)
	}
}

func TestProvider_DefaultsToMainnetPrecompiles(t *testing.T) {
	provider := NewProvider(nil, nil)
	ecrecover := tosca.Address{19: 0x01}
	if !provider.Contains(tosca.R14_Prague, ecrecover) {
		t.Errorf("standard precompiled contracts should be available")
	}
}

func TestRevert_ConsumesFixedGas(t *testing.T) {
	if want, got := (tosca.CallResult{GasLeft: 90}), revert(100); !sameResult(want, got) {
		t.Errorf("unexpected result, wanted %v, got %v", want, got)
	}
	if want, got := (tosca.CallResult{}), revert(9); !sameResult(want, got) {
		t.Errorf("unexpected result, wanted %v, got %v", want, got)
	}
}

func sameResult(a, b tosca.CallResult) bool {
	return a.Success == b.Success &&
		a.GasLeft == b.GasLeft &&
		a.GasRefund == b.GasRefund &&
		a.CreatedAddress == b.CreatedAddress &&
		bytes.Equal(a.Output, b.Output)
}

func toCommon(address tosca.Address) common.Address {
	return common.Address(address)
}
