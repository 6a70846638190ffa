package collector

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal hand-written ABI fragments: only the read methods the collector
// touches, no generated bindings.

const poolABIJSON = `[
	{"inputs":[],"name":"token0","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"token1","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"fee","outputs":[{"internalType":"uint24","name":"","type":"uint24"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"tickSpacing","outputs":[{"internalType":"int24","name":"","type":"int24"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"liquidity","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"slot0","outputs":[
		{"internalType":"uint160","name":"sqrtPriceX96","type":"uint160"},
		{"internalType":"int24","name":"tick","type":"int24"},
		{"internalType":"uint16","name":"observationIndex","type":"uint16"},
		{"internalType":"uint16","name":"observationCardinality","type":"uint16"},
		{"internalType":"uint16","name":"observationCardinalityNext","type":"uint16"},
		{"internalType":"uint8","name":"feeProtocol","type":"uint8"},
		{"internalType":"bool","name":"unlocked","type":"bool"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"int16","name":"wordPosition","type":"int16"}],"name":"tickBitmap","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"int24","name":"tick","type":"int24"}],"name":"ticks","outputs":[
		{"internalType":"uint128","name":"liquidityGross","type":"uint128"},
		{"internalType":"int128","name":"liquidityNet","type":"int128"},
		{"internalType":"uint256","name":"feeGrowthOutside0X128","type":"uint256"},
		{"internalType":"uint256","name":"feeGrowthOutside1X128","type":"uint256"},
		{"internalType":"int56","name":"tickCumulativeOutside","type":"int56"},
		{"internalType":"uint160","name":"secondsPerLiquidityOutsideX128","type":"uint160"},
		{"internalType":"uint32","name":"secondsOutside","type":"uint32"},
		{"internalType":"bool","name":"initialized","type":"bool"}
	],"stateMutability":"view","type":"function"}
]`

const erc20ABIJSON = `[
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

const factoryABIJSON = `[
	{"inputs":[
		{"internalType":"address","name":"tokenA","type":"address"},
		{"internalType":"address","name":"tokenB","type":"address"},
		{"internalType":"uint24","name":"fee","type":"uint24"}
	],"name":"getPool","outputs":[{"internalType":"address","name":"pool","type":"address"}],"stateMutability":"view","type":"function"}
]`

var (
	poolABI    = mustABI(poolABIJSON)
	erc20ABI   = mustABI(erc20ABIJSON)
	factoryABI = mustABI(factoryABIJSON)
)

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("collector: invalid abi definition: %v", err))
	}
	return parsed
}
