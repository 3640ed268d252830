package placements

import (
	"github.com/promoflow/adkit/interstitial"
)

// Placement is one configured ad placement. It comes from the
// `placements` list in the service configuration.
type Placement struct {
	// Tag is the unique placement identifier used by callers.
	Tag string `yaml:"tag" mapstructure:"tag" json:"tag" validate:"required"`
	// UnitID is the ad-network unit backing this placement.
	UnitID string `yaml:"unit_id" mapstructure:"unit_id" json:"unit_id" validate:"required"`
	// Buffer overrides the per-subscription channel buffer. Zero keeps
	// the stream default.
	Buffer int `yaml:"buffer" mapstructure:"buffer" json:"buffer,omitempty" validate:"omitempty,min=1,max=4096"`
}

// Status is a point-in-time view of one placement, as served by the
// monitor API.
type Status struct {
	Tag    interstitial.Tag   `json:"tag"`
	UnitID string             `json:"unit_id"`
	State  interstitial.State `json:"state"`
	Ready  bool               `json:"ready"`
}
