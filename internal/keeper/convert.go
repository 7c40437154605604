package keeper

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func single(values []interface{}, method string) (interface{}, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values[0], nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

// asBinID accepts the uint24 active id, which the ABI decoder returns as *big.Int.
func asBinID(value interface{}) (uint32, error) {
	v, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || v.BitLen() > 24 {
		return 0, fmt.Errorf("bin id out of range: %s", v.String())
	}
	return uint32(v.Uint64()), nil
}

func asUint16(value interface{}) (uint16, error) {
	v, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || v.BitLen() > 16 {
		return 0, fmt.Errorf("uint16 out of range: %s", v.String())
	}
	return uint16(v.Uint64()), nil
}

func asBool(value interface{}) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("unsupported bool type %T", value)
	}
	return v, nil
}
