package domain

// WalletSummary is the store-credit balance overview shown on the account
// dashboard.
type WalletSummary struct {
	Balance       Amount    `json:"balance"`
	CreditedMonth Amount    `json:"creditedMonth"`
	SpentMonth    Amount    `json:"spentMonth"`
	NetThisMonth  Amount    `json:"netThisMonth"`
	Currency      string    `json:"currency,omitempty"`
	UpdatedAt     Time      `json:"updatedAt"`
}

type WalletTransactionType string

const (
	WalletCredit WalletTransactionType = "credit"
	WalletDebit  WalletTransactionType = "debit"
)

type WalletTransaction struct {
	ID          string                `json:"id"`
	Type        WalletTransactionType `json:"type"`
	Amount      Amount                `json:"amount"`
	Description string                `json:"description,omitempty"`
	Code        string                `json:"code,omitempty"`
	CreatedAt   Time                  `json:"createdAt"`
}

type WalletTransactionPage struct {
	Transactions []WalletTransaction `json:"transactions"`
	Page         Count               `json:"page"`
	TotalPages   Count               `json:"totalPages"`
}

// RedeemResult is what the backend returns for an accepted redeem code.
type RedeemResult struct {
	Amount     Amount `json:"amount"`
	NewBalance Amount `json:"newBalance"`
	Message    string `json:"message,omitempty"`
}
