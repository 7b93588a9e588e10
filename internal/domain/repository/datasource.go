package repository

import "context"

// DataSource agrupa los repositorios de una misma fuente de datos (PostgreSQL o memoria).
// Se selecciona una sola vez al arrancar; los casos de uso no conocen la implementación.
type DataSource interface {
	Name() string
	Categories() CategoryRepository
	Strategies() StrategyRepository
	StrategyCategories() StrategyCategoryRepository
	Templates() TemplateRepository
	ChangeLogs() CategoryChangeLogRepository
	// RunInTx ejecuta fn con repositorios atados a una misma transacción.
	RunInTx(ctx context.Context, fn func(tx DataSource) error) error
	Ping(ctx context.Context) error
	Close()
}
