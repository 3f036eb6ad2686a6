// Package pg connects to PostgreSQL with pgx/v5 and applies goose
// migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, client.Migrations(), log); err != nil {
//		return err
//	}
//
// Configuration is read from PG_* environment variables, see Config.
package pg
