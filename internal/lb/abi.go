package lb

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// pairABIJSON is the subset of the LB pair interface used by the keeper.
const pairABIJSON = `[
  {"inputs": [], "name": "getTokenX", "outputs": [{"internalType": "contract IERC20", "name": "tokenX", "type": "address"}], "stateMutability": "pure", "type": "function"},
  {"inputs": [], "name": "getTokenY", "outputs": [{"internalType": "contract IERC20", "name": "tokenY", "type": "address"}], "stateMutability": "pure", "type": "function"},
  {"inputs": [], "name": "getActiveId", "outputs": [{"internalType": "uint24", "name": "activeId", "type": "uint24"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getBinStep", "outputs": [{"internalType": "uint16", "name": "", "type": "uint16"}], "stateMutability": "pure", "type": "function"},
  {
    "inputs": [{"internalType": "uint24", "name": "id", "type": "uint24"}],
    "name": "getBin",
    "outputs": [
      {"internalType": "uint128", "name": "binReserveX", "type": "uint128"},
      {"internalType": "uint128", "name": "binReserveY", "type": "uint128"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "account", "type": "address"},
      {"internalType": "uint256", "name": "id", "type": "uint256"}
    ],
    "name": "balanceOf",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "id", "type": "uint256"}],
    "name": "totalSupply",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "spender", "type": "address"}
    ],
    "name": "isApprovedForAll",
    "outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "spender", "type": "address"},
      {"internalType": "bool", "name": "approved", "type": "bool"}
    ],
    "name": "approveForAll",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const liquidityParametersJSON = `{
  "components": [
    {"internalType": "contract IERC20", "name": "tokenX", "type": "address"},
    {"internalType": "contract IERC20", "name": "tokenY", "type": "address"},
    {"internalType": "uint256", "name": "binStep", "type": "uint256"},
    {"internalType": "uint256", "name": "amountX", "type": "uint256"},
    {"internalType": "uint256", "name": "amountY", "type": "uint256"},
    {"internalType": "uint256", "name": "amountXMin", "type": "uint256"},
    {"internalType": "uint256", "name": "amountYMin", "type": "uint256"},
    {"internalType": "uint256", "name": "activeIdDesired", "type": "uint256"},
    {"internalType": "uint256", "name": "idSlippage", "type": "uint256"},
    {"internalType": "int256[]", "name": "deltaIds", "type": "int256[]"},
    {"internalType": "uint256[]", "name": "distributionX", "type": "uint256[]"},
    {"internalType": "uint256[]", "name": "distributionY", "type": "uint256[]"},
    {"internalType": "address", "name": "to", "type": "address"},
    {"internalType": "address", "name": "refundTo", "type": "address"},
    {"internalType": "uint256", "name": "deadline", "type": "uint256"}
  ],
  "internalType": "struct ILBRouter.LiquidityParameters",
  "name": "liquidityParameters",
  "type": "tuple"
}`

const addLiquidityOutputsJSON = `[
  {"internalType": "uint256", "name": "amountXAdded", "type": "uint256"},
  {"internalType": "uint256", "name": "amountYAdded", "type": "uint256"},
  {"internalType": "uint256", "name": "amountXLeft", "type": "uint256"},
  {"internalType": "uint256", "name": "amountYLeft", "type": "uint256"},
  {"internalType": "uint256[]", "name": "depositIds", "type": "uint256[]"},
  {"internalType": "uint256[]", "name": "liquidityMinted", "type": "uint256[]"}
]`

// routerABIJSON is the subset of the LB router interface used by the keeper.
const routerABIJSON = `[
  {
    "inputs": [` + liquidityParametersJSON + `],
    "name": "addLiquidity",
    "outputs": ` + addLiquidityOutputsJSON + `,
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [` + liquidityParametersJSON + `],
    "name": "addLiquidityNATIVE",
    "outputs": ` + addLiquidityOutputsJSON + `,
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "contract IERC20", "name": "tokenX", "type": "address"},
      {"internalType": "contract IERC20", "name": "tokenY", "type": "address"},
      {"internalType": "uint16", "name": "binStep", "type": "uint16"},
      {"internalType": "uint256", "name": "amountXMin", "type": "uint256"},
      {"internalType": "uint256", "name": "amountYMin", "type": "uint256"},
      {"internalType": "uint256[]", "name": "ids", "type": "uint256[]"},
      {"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"},
      {"internalType": "address", "name": "to", "type": "address"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "removeLiquidity",
    "outputs": [
      {"internalType": "uint256", "name": "amountX", "type": "uint256"},
      {"internalType": "uint256", "name": "amountY", "type": "uint256"}
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "contract IERC20", "name": "token", "type": "address"},
      {"internalType": "uint16", "name": "binStep", "type": "uint16"},
      {"internalType": "uint256", "name": "amountTokenMin", "type": "uint256"},
      {"internalType": "uint256", "name": "amountNATIVEMin", "type": "uint256"},
      {"internalType": "uint256[]", "name": "ids", "type": "uint256[]"},
      {"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"},
      {"internalType": "address payable", "name": "to", "type": "address"},
      {"internalType": "uint256", "name": "deadline", "type": "uint256"}
    ],
    "name": "removeLiquidityNATIVE",
    "outputs": [
      {"internalType": "uint256", "name": "amountToken", "type": "uint256"},
      {"internalType": "uint256", "name": "amountNATIVE", "type": "uint256"}
    ],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	pairABI       abi.ABI
	pairABIOnce   sync.Once
	pairABIErr    error
	routerABI     abi.ABI
	routerABIOnce sync.Once
	routerABIErr  error
)

// PairABI returns the parsed LB pair interface.
func PairABI() (abi.ABI, error) {
	pairABIOnce.Do(func() {
		pairABI, pairABIErr = abi.JSON(strings.NewReader(pairABIJSON))
	})
	return pairABI, pairABIErr
}

// RouterABI returns the parsed LB router interface.
func RouterABI() (abi.ABI, error) {
	routerABIOnce.Do(func() {
		routerABI, routerABIErr = abi.JSON(strings.NewReader(routerABIJSON))
	})
	return routerABI, routerABIErr
}
