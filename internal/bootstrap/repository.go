package bootstrap

import (
	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	barInfra "github.com/muhammadchandra19/market-signal/internal/infrastructure/questdb/bar"
	tradeInfra "github.com/muhammadchandra19/market-signal/internal/infrastructure/questdb/trade"
)

// Repository holds the store adapters.
type Repository struct {
	Trade tradev1.TradeRepository
	Bar   barv1.BarRepository
}

// registerRepository registers the repository.
func (b *Bootstrap) registerRepository() {
	b.Repository.Trade = tradeInfra.NewRepository(b.QuestDB)
	b.Repository.Bar = barInfra.NewRepository(b.QuestDB, barInfra.Tables{
		ReadPrefix: b.Config.Scan.BarReadPrefix,
		Write:      b.Config.Scan.BarReadPrefix + b.Config.Scan.Symbol,
	})
}

// UseBarTable points bar writes at table.
func (b *Bootstrap) UseBarTable(table string) {
	b.Repository.Bar = barInfra.NewRepository(b.QuestDB, barInfra.Tables{
		ReadPrefix: b.Config.Scan.BarReadPrefix,
		Write:      table,
	})
}
