package layouts

import "github.com/JonMunkholm/csvload/internal/core"

func init() {
	registerTransactions()
}

func registerTransactions() {
	core.Register(core.Layout{
		Key:         "transactions",
		Group:       "Finance",
		Label:       "Transactions",
		Description: "Invoice transactions with a header line, bound into property bags",
		Config: func() *core.Config {
			cfg := core.NewConfig()
			cfg.HasHeader = true
			cfg.IgnoreEmptyLine = true
			cfg.ErrorMode = core.IgnoreAndContinue
			cfg.ApplyFallbackToBags = true

			cfg.AddField("Transaction ID", 0, core.FieldText).Size = 36
			cfg.AddField("Customer", 0, core.FieldText)
			cfg.AddField("Invoice Date", 0, core.FieldDate)

			currency := cfg.AddField("Currency", 0, core.FieldEnum)
			currency.EnumValues = []string{"USD", "EUR", "GBP", "DKK"}
			currency.Fallback = "USD"

			cfg.AddField("Amount", 0, core.FieldNumeric)
			tax := cfg.AddField("Tax", 0, core.FieldNumeric)
			tax.Fallback = "0"
			tax.IgnoreValues = []string{"N/A"}

			cfg.AddField("Void", 0, core.FieldBool).Fallback = false
			return cfg
		},
	})
}
