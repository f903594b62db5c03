// Package pg connects to PostgreSQL through a pgx pool and applies the
// embedded goose migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
package pg
