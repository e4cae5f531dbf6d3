package model

// Token describes one side of a pool pair.
type Token struct {
	Address  string
	Symbol   string
	Decimals uint8
	// PriceUSD is the unit price in USD, nil when no feed knows the token.
	PriceUSD *float64
}

// HasPrice reports whether a USD unit price is known for the token.
func (t Token) HasPrice() bool {
	return t.PriceUSD != nil
}
