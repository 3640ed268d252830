// Package bootstrap assembles a configured ad service around an SDK
// adapter: logger, telemetry, the placement registry, the optional
// monitor server and the component lifecycle, with hooks for
// service-specific setup and teardown.
//
// # Quick Start
//
//	cfg, err := config.Load("my-game")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.New(cfg, adapter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.OnReady(func(ctx context.Context) error {
//	    _, err := app.Registry.Load(ctx, "home_screen")
//	    return err
//	})
//	if err := app.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT/SIGTERM and shuts everything down in reverse
// start order. RunTask does the same around a finite function, for
// batch jobs and smoke tests.
package bootstrap
