// Package pg wires PostgreSQL into the service: a pgx connection pool opened
// with retries, goose migrations read from an embedded filesystem, a health
// check, and helpers that classify driver errors.
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
