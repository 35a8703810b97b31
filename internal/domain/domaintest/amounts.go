// Package domaintest holds fixtures shared by the store tests.
package domaintest

// AmountCase is one bid against an auction with base price 50, step 5 and a
// current bid of 50 already accepted.
type AmountCase struct {
	Amount   string
	Invalid  bool
	Accepted bool
}

var (
	BasePrice  = "50"
	Step       = "5"
	CurrentBid = "50"
)

// EdgeAmounts must produce the same outcome on every AuctionStore.
var EdgeAmounts = []AmountCase{
	{Amount: "54.99"},
	{Amount: "55.00", Accepted: true},
	{Amount: "55.01", Accepted: true},
	{Amount: "55.100", Accepted: true},
	{Amount: "9999999999999999.99", Accepted: true},
	{Amount: "54.996", Invalid: true},
	{Amount: "55.0049", Invalid: true},
	{Amount: "10000000000000000", Invalid: true},
	{Amount: "0", Invalid: true},
	{Amount: "-55", Invalid: true},
}
