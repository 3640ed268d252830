package sdktest

import (
	"fmt"
	"sync"

	"github.com/promoflow/adkit/sdk"
)

// Handle is the fake's handle implementation.
type Handle struct {
	id     string
	unitID string
}

// ID returns the handle identifier.
func (h *Handle) ID() string { return h.id }

// UnitID returns the ad unit the handle was created for.
func (h *Handle) UnitID() string { return h.unitID }

// Fake is an in-memory, scriptable sdk.Interstitial. Operations are
// recorded for inspection; load and present behavior is scripted via
// OnLoad/OnPresent, with the script running synchronously inside the
// triggering call so tests can exercise reentrant callbacks. Targets
// of released handles are retained, letting tests deliver "in-flight"
// callbacks after a release.
type Fake struct {
	mu           sync.Mutex
	seq          int
	handles      map[string]*Handle            // live handles by unit ID
	targets      map[string]sdk.CallbackTarget // by handle ID, survives release
	createCalls  int
	loadCalls    int
	presentCalls int
	releaseCalls int
	released     []string
	surfaces     []sdk.Surface
	onLoad       func(sdk.CallbackTarget)
	onPresent    func(sdk.CallbackTarget)
}

// New creates an empty fake with no scripted behavior: loads and
// presents record the call and do nothing until a script is set or the
// test fires callbacks through Target.
func New() *Fake {
	return &Fake{
		handles: make(map[string]*Handle),
		targets: make(map[string]sdk.CallbackTarget),
	}
}

// CreateOrReuse returns the live handle for unitID, creating one if
// none exists. Released handles are not reused.
func (f *Fake) CreateOrReuse(unitID string) sdk.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if h, ok := f.handles[unitID]; ok {
		return h
	}
	f.seq++
	h := &Handle{id: fmt.Sprintf("h-%d", f.seq), unitID: unitID}
	f.handles[unitID] = h
	return h
}

// RegisterTarget routes the handle's callbacks to target.
func (f *Fake) RegisterTarget(h sdk.Handle, target sdk.CallbackTarget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets[h.ID()] = target
}

// Load records the call and runs the load script, if any,
// synchronously before returning.
func (f *Fake) Load(h sdk.Handle) {
	f.mu.Lock()
	f.loadCalls++
	script := f.onLoad
	target := f.targets[h.ID()]
	f.mu.Unlock()

	if script != nil && target != nil {
		script(target)
	}
}

// Present records the call and surface and runs the present script, if
// any, synchronously before returning.
func (f *Fake) Present(h sdk.Handle, surface sdk.Surface) {
	f.mu.Lock()
	f.presentCalls++
	f.surfaces = append(f.surfaces, surface)
	script := f.onPresent
	target := f.targets[h.ID()]
	f.mu.Unlock()

	if script != nil && target != nil {
		script(target)
	}
}

// Release records the release and forgets the live handle. The
// handle's registered target is kept so tests can still deliver
// callbacks that were in flight at release time.
func (f *Fake) Release(h sdk.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	f.released = append(f.released, h.ID())
	for unitID, live := range f.handles {
		if live.id == h.ID() {
			delete(f.handles, unitID)
		}
	}
}

// OnLoad scripts the behavior of Load.
func (f *Fake) OnLoad(fn func(sdk.CallbackTarget)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLoad = fn
}

// OnPresent scripts the behavior of Present.
func (f *Fake) OnPresent(fn func(sdk.CallbackTarget)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPresent = fn
}

// SucceedLoads scripts every Load to report success synchronously.
func (f *Fake) SucceedLoads() {
	f.OnLoad(func(t sdk.CallbackTarget) { t.OnLoadSuccess() })
}

// FailLoads scripts every Load to report the given failure
// synchronously.
func (f *Fake) FailLoads(err error) {
	f.OnLoad(func(t sdk.CallbackTarget) { t.OnLoadFailure(err) })
}

// PresentationCycle fires the four presentation callbacks in order.
// Pass it to OnPresent to script a full synchronous cycle.
func PresentationCycle(t sdk.CallbackTarget) {
	t.OnWillAppear()
	t.OnDidAppear()
	t.OnWillDisappear()
	t.OnDidDisappear()
}

// Target returns the callback target registered for the live handle of
// unitID, or nil if there is none. Use it to fire callbacks manually.
func (f *Fake) Target(unitID string) sdk.CallbackTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handles[unitID]
	if !ok {
		return nil
	}
	return f.targets[h.id]
}

// HandleFor returns the live handle for unitID, or nil.
func (f *Fake) HandleFor(unitID string) sdk.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handles[unitID]
	if !ok {
		return nil
	}
	return h
}

// CreateCalls returns the number of CreateOrReuse invocations.
func (f *Fake) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// LoadCalls returns the number of Load invocations.
func (f *Fake) LoadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls
}

// PresentCalls returns the number of Present invocations.
func (f *Fake) PresentCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presentCalls
}

// ReleaseCalls returns the number of Release invocations.
func (f *Fake) ReleaseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls
}

// HandleCount returns the cumulative number of handles ever created.
func (f *Fake) HandleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

// LiveHandles returns the number of handles created and not yet
// released.
func (f *Fake) LiveHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}

// Released returns the handle IDs released so far, in order.
func (f *Fake) Released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.released))
	copy(out, f.released)
	return out
}

// Surfaces returns every surface passed to Present, in order.
func (f *Fake) Surfaces() []sdk.Surface {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sdk.Surface, len(f.surfaces))
	copy(out, f.surfaces)
	return out
}

// Ensure Fake implements the port.
var _ sdk.Interstitial = (*Fake)(nil)
