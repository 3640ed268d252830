// Package sdk defines the port to the third-party interstitial ad SDK.
//
// The SDK is treated as an opaque black box: imperative operations
// (create, load, present, release) return nothing, and every outcome
// arrives through the CallbackTarget capability set, on an arbitrary
// goroutine or synchronously inside the triggering call. Adapters for
// concrete vendor SDKs implement Interstitial; sdktest provides a
// scriptable fake for tests.
package sdk
