package solana

import "net/url"

const explorerBase = "https://explorer.solana.com"

// ExplorerTxURL builds a block-explorer link for a transaction
// signature. Off mainnet-beta the cluster is carried in the query
// string, matching the explorer's own convention.
func ExplorerTxURL(signature, network string) string {
	return explorerURL("/tx/"+signature, network)
}

// ExplorerAddressURL builds a block-explorer link for an account.
func ExplorerAddressURL(address, network string) string {
	return explorerURL("/address/"+address, network)
}

func explorerURL(path, network string) string {
	u := explorerBase + path
	if network != "" && network != "mainnet-beta" {
		u += "?cluster=" + url.QueryEscape(network)
	}
	return u
}
