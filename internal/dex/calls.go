package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// callElem builds one eth_call batch element for a contract method.
func callElem(contractABI abi.ABI, to common.Address, method string, args ...interface{}) (rpc.BatchElem, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return rpc.BatchElem{}, fmt.Errorf("pack %s: %w", method, err)
	}
	return rpc.BatchElem{
		Method: "eth_call",
		Args: []interface{}{
			map[string]interface{}{
				"to":   to,
				"data": hexutil.Bytes(data),
			},
			"latest",
		},
		Result: new(hexutil.Bytes),
	}, nil
}

// unpackElem decodes a batch element's return data for a method.
func unpackElem(contractABI abi.ABI, method string, elem rpc.BatchElem) ([]interface{}, error) {
	raw, ok := elem.Result.(*hexutil.Bytes)
	if !ok || raw == nil {
		return nil, fmt.Errorf("missing result for %s", method)
	}
	values, err := contractABI.Unpack(method, *raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty return for %s", method)
	}
	return values, nil
}

func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}
