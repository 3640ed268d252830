// Package sdktest provides a scriptable in-memory implementation of
// sdk.Interstitial for tests.
//
// Scripts set with OnLoad/OnPresent run synchronously inside the
// triggering operation, which is exactly how the most hostile real
// SDKs behave; tests use this to prove that callbacks fired before
// Load or Present return are still observed. Manual, cross-goroutine
// delivery goes through Target.
package sdktest
