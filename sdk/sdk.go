package sdk

// Handle is an opaque reference to an ad object owned by the
// underlying SDK. Callers never inspect it beyond its identifier;
// they hand it back to the Interstitial operations.
type Handle interface {
	// ID identifies the handle in logs and diagnostics.
	ID() string
}

// Surface is the opaque presentation surface supplied by the caller
// for the duration of a present operation (a view controller, window,
// or activity reference depending on the host platform).
type Surface any

// CallbackTarget is the capability set an SDK handle reports back
// through. The SDK communicates results exclusively via these
// callbacks; its imperative operations return nothing. Callbacks may
// arrive on any goroutine, including synchronously inside the
// operation that triggered them.
type CallbackTarget interface {
	// OnLoadSuccess signals that the ad finished loading and is ready
	// to present.
	OnLoadSuccess()
	// OnLoadFailure signals that the load attempt failed.
	OnLoadFailure(err error)
	// OnExpire signals that a previously loaded ad is no longer valid.
	OnExpire()
	// OnWillAppear fires just before the ad covers the surface.
	OnWillAppear()
	// OnDidAppear fires once the ad is fully visible.
	OnDidAppear()
	// OnWillDisappear fires just before the ad is dismissed.
	OnWillDisappear()
	// OnDidDisappear fires once the ad is fully gone. It ends a
	// presentation cycle.
	OnDidDisappear()
}

// Interstitial is the port to the third-party interstitial ad SDK.
// Implementations wrap the vendor SDK; sdktest provides a scriptable
// in-memory fake.
type Interstitial interface {
	// CreateOrReuse returns the handle for the given ad unit, creating
	// it on first use. Repeated calls with the same unit ID return the
	// same handle.
	CreateOrReuse(unitID string) Handle
	// RegisterTarget routes the handle's callbacks to target,
	// replacing any previously registered target.
	RegisterTarget(h Handle, target CallbackTarget)
	// Load starts an asynchronous load. The outcome arrives via
	// OnLoadSuccess or OnLoadFailure, possibly before Load returns.
	Load(h Handle)
	// Present starts an asynchronous presentation on the given
	// surface. Progress arrives via the four presentation callbacks.
	Present(h Handle, surface Surface)
	// Release frees the handle. Callbacks already in flight may still
	// be delivered afterwards; consumers are expected to discard them.
	Release(h Handle)
}
