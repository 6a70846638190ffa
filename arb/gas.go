package arb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tickwalk/tickwalk-go/pool"
)

// gasWei returns the run's total gas assumption in wei.
func (c *Config) gasWei() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(c.GasUnits), c.GasPriceWei)
}

// gasCostToken0 expresses a wei gas cost in raw token0 units of the given
// pool, through its current spot price. The conversion exists only when one
// side of the pair is wrapped ether: a WETH token0 amount already is wei,
// and a WETH token1 amount converts by dividing out the raw price, rounding
// up. For pairs with no WETH side the cost cannot be charged and the second
// return is false.
func gasCostToken0(state *pool.State, weth common.Address, gasWei *big.Int) (*big.Int, bool) {
	switch {
	case state.Token0.Address == weth:
		return new(big.Int).Set(gasWei), true
	case state.Token1.Address == weth:
		num := new(big.Int).Lsh(gasWei, 192)
		cost, rem := new(big.Int).DivMod(num, state.PriceX192(), new(big.Int))
		if rem.Sign() > 0 {
			cost.Add(cost, big.NewInt(1))
		}
		return cost, true
	default:
		return nil, false
	}
}
