// Package testinfra starts throwaway containers for integration and
// end-to-end tests.
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pg.Terminate(ctx)
//
//	conn, err := db.Open(ctx, pg.Config)
//
// Everything except this file is behind the integration or e2e build tag.
package testinfra
