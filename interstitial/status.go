package interstitial

// Tag identifies one configured ad placement. It is opaque to the
// controller and immutable for a controller's lifetime.
type Tag string

// State is the controller's lifecycle state.
type State string

const (
	StateNotLoaded  State = "not_loaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StatePresenting State = "presenting"
)

// LoadStatus is one load outcome on the load-status stream. Err is nil
// for a successful load and an *errors.AdError (AD_LOAD_FAILED or
// AD_EXPIRED) otherwise.
type LoadStatus struct {
	Tag Tag
	Err error
}

// Loaded reports whether the outcome is a successful load.
func (s LoadStatus) Loaded() bool { return s.Err == nil }

// NewLoaded builds the success outcome for a tag.
func NewLoaded(tag Tag) LoadStatus {
	return LoadStatus{Tag: tag}
}

// NewLoadFailed builds a failure outcome carrying err.
func NewLoadFailed(tag Tag, err error) LoadStatus {
	return LoadStatus{Tag: tag, Err: err}
}

// PresentationStatus is one event on the presentation-status stream.
// The four appearance events occur only during an active presentation;
// NoAdLoaded is the terminal status of a present call issued while no
// ad was ready.
type PresentationStatus string

const (
	WillAppear    PresentationStatus = "will_appear"
	DidAppear     PresentationStatus = "did_appear"
	WillDisappear PresentationStatus = "will_disappear"
	DidDisappear  PresentationStatus = "did_disappear"
	NoAdLoaded    PresentationStatus = "no_ad_loaded"
)

// Terminal reports whether the status ends a present stream.
func (s PresentationStatus) Terminal() bool {
	return s == DidDisappear || s == NoAdLoaded
}
