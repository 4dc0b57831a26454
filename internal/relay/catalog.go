package relay

// Tool names understood by the financial data service.
const (
	ToolNetWorth          = "fetch_net_worth"
	ToolCreditReport      = "fetch_credit_report"
	ToolEPFDetails        = "fetch_epf_details"
	ToolMFTransactions    = "fetch_mf_transactions"
	ToolBankTransactions  = "fetch_bank_transactions"
	ToolStockTransactions = "fetch_stock_transactions"
)

// Tool describes one remote tool for declaration to the model and to
// protocol clients. None of the tools take arguments; the caller's
// identity travels in the session correlation header instead.
type Tool struct {
	Name        string
	Description string
}

// Catalog returns the fixed set of tools the service exposes.
func Catalog() []Tool {
	return []Tool{
		{
			Name: ToolNetWorth,
			Description: "Fetch the user's consolidated net worth with a " +
				"per-asset breakdown across bank deposits, mutual funds, " +
				"securities, EPF and outstanding liabilities.",
		},
		{
			Name: ToolCreditReport,
			Description: "Fetch the user's credit report including the " +
				"bureau score, active loans and recent inquiries.",
		},
		{
			Name: ToolEPFDetails,
			Description: "Fetch the user's employee provident fund account " +
				"details including balance and contribution history.",
		},
		{
			Name: ToolMFTransactions,
			Description: "Fetch the user's mutual fund transaction history " +
				"across all folios.",
		},
		{
			Name: ToolBankTransactions,
			Description: "Fetch the user's bank account transaction history.",
		},
		{
			Name: ToolStockTransactions,
			Description: "Fetch the user's equity transaction history.",
		},
	}
}
