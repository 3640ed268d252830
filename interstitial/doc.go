// Package interstitial converts an ad SDK's callback-driven
// interstitial lifecycle into channel-based streams.
//
// A Controller owns one placement tag and at most one SDK handle. Its
// three output streams are multicast: load-status (replays the most
// recent outcome to late subscribers), presentation-status, and
// dismissed-notification. Imperative methods subscribe before they
// invoke the SDK, so outcomes reported synchronously inside an SDK
// call are never missed.
//
// Typical flow:
//
//	ctrl, err := interstitial.New("home_screen", "unit-123", port)
//	if err != nil {
//		return err
//	}
//	defer ctrl.Close()
//
//	load := ctrl.Load()
//	status, ok, err := load.Next(ctx)
//	if err != nil || !ok || !status.Loaded() {
//		return status.Err
//	}
//
//	for s := range ctrl.Present(surface).Events() {
//		// WillAppear, DidAppear, WillDisappear, DidDisappear
//		_ = s
//	}
//
// Failures are values on the load-status stream, never stream
// completion: the stream survives a failed load so the next Load can
// reuse it.
package interstitial
