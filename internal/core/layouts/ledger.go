package layouts

import (
	"golang.org/x/text/language"

	"github.com/JonMunkholm/csvload/internal/core"
)

func init() {
	registerLedger()
}

func registerLedger() {
	core.Register(core.Layout{
		Key:         "ledger",
		Group:       "Finance",
		Label:       "Ledger (EU)",
		Description: `Headerless ";"-delimited ledger lines with a "sep=" line and comma decimals`,
		Config: func() *core.Config {
			cfg := core.NewConfig()
			cfg.Delimiter = ";"
			cfg.Culture = language.German
			cfg.RequireSeparatorDirective = true
			cfg.IgnoreEmptyLine = true

			cfg.AddField("Account", 1, core.FieldText).Trim = core.TrimNone
			cfg.AddField("Booked", 2, core.FieldDate)
			cfg.AddField("Amount", 3, core.FieldFloat)
			memo := cfg.AddField("Memo", 4, core.FieldText)
			memo.Size = 80
			memo.Truncate = true
			return cfg
		},
	})
}
