package shared

// Asset describes a token on a network. Two assets are the same when symbol and network match.
type Asset struct {
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	Network         string         `json:"network"`
	Address         *WalletAddress `json:"address,omitempty"`
	Decimals        uint8          `json:"decimals"`
	DisplayDecimals uint8          `json:"display_decimals"`
}

// Equal compares by symbol and network only.
func (a Asset) Equal(other Asset) bool {
	return a.Symbol == other.Symbol && a.Network == other.Network
}

// Key is a stable map/storage key for the asset identity.
func (a Asset) Key() string { return a.Network + ":" + a.Symbol }

// USDT is Tether on Ethereum mainnet.
func USDT() Asset {
	addr, _ := ParseWalletAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")

	return Asset{
		Name:            "Tether USD",
		Symbol:          "USDT",
		Network:         "ethereum",
		Address:         &addr,
		Decimals:        6,
		DisplayDecimals: 2,
	}
}
