package interstitial

import (
	"github.com/promoflow/adkit/sdk"
)

// relay is the callback target registered with the SDK for one handle
// generation. It holds a non-owning back-reference to the controller;
// the generation number lets the controller discard callbacks that
// arrive after the handle they belong to was released.
type relay struct {
	ctrl *Controller
	gen  uint64
}

func (r *relay) OnLoadSuccess() { r.ctrl.onLoadSuccess(r.gen) }

func (r *relay) OnLoadFailure(err error) { r.ctrl.onLoadFailure(r.gen, err) }

func (r *relay) OnExpire() { r.ctrl.onExpire(r.gen) }

func (r *relay) OnWillAppear() { r.ctrl.onPresentation(r.gen, WillAppear) }

func (r *relay) OnDidAppear() { r.ctrl.onPresentation(r.gen, DidAppear) }

func (r *relay) OnWillDisappear() { r.ctrl.onPresentation(r.gen, WillDisappear) }

func (r *relay) OnDidDisappear() { r.ctrl.onPresentation(r.gen, DidDisappear) }

var _ sdk.CallbackTarget = (*relay)(nil)
