package dto

// SessionRequest exchanges the web backend's service token for a user
// JWT. The Next.js frontend never talks to this API unauthenticated.
type SessionRequest struct {
	ServiceToken string  `json:"service_token"`
	Handle       string  `json:"handle"`
	DisplayName  *string `json:"display_name,omitempty"`
}

type ConnectWalletRequest struct {
	PublicKey string `json:"public_key"` // base58
	Network   string `json:"network,omitempty"`
}

type CreatePurchaseRequest struct {
	SellerID             string  `json:"seller_id"`
	ItemType             string  `json:"item_type"` // prompt / agent
	Amount               float64 `json:"amount"`    // gross price in SOL
	TransactionSignature string  `json:"transaction_signature"`
}
