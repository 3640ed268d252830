// Package observability provides OpenTelemetry tracing and metrics
// integration plus the structured event sink the ad controllers report
// through.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("adkit")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanAdLoad)
//	defer span.End()
//
// Metrics:
//
//	mcfg := observability.DefaultMeterConfig("adkit")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("adkit"))
//	metrics.RecordLoad(ctx, "home_screen", observability.OutcomeLoaded, duration)
//
// Events:
//
//	sink := observability.NewLogSink(nil)
//	sink.Record("adDidDisappear", map[string]any{"tag": "home_screen"})
//
// Health Reports:
//
//	report := observability.NewReport("adkit", version.Version)
//	report.Add(registry.Health(ctx))
//	code := report.HTTPStatus()
package observability
