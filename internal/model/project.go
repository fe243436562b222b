package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// ApplicationType enumerates planning application kinds.
type ApplicationType string

// Application types.
const (
	AppExtension      ApplicationType = "extension"
	AppNewBuild       ApplicationType = "new_build"
	AppLoftConversion ApplicationType = "loft_conversion"
	AppChangeOfUse    ApplicationType = "change_of_use"
	AppListedBuilding ApplicationType = "listed_building"
	AppDemolition     ApplicationType = "demolition"
	AppOther          ApplicationType = "other"
)

// Valid reports whether t is a known application type.
func (t ApplicationType) Valid() bool {
	switch t {
	case AppExtension, AppNewBuild, AppLoftConversion, AppChangeOfUse,
		AppListedBuilding, AppDemolition, AppOther:
		return true
	}
	return false
}

// PropertyType enumerates the kinds of property a project applies to.
type PropertyType string

// Property types.
const (
	PropDetached     PropertyType = "detached"
	PropSemiDetached PropertyType = "semi_detached"
	PropTerraced     PropertyType = "terraced"
	PropFlat         PropertyType = "flat"
	PropCommercial   PropertyType = "commercial"
	PropLand         PropertyType = "land"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	switch t {
	case PropDetached, PropSemiDetached, PropTerraced, PropFlat, PropCommercial, PropLand:
		return true
	}
	return false
}

// ProjectParams describes the development being assessed.
type ProjectParams struct {
	ApplicationType      ApplicationType `json:"application_type"`
	PropertyType         PropertyType    `json:"property_type"`
	NumStoreys           int             `json:"num_storeys"`
	EstimatedFloorAreaM2 float64         `json:"estimated_floor_area_m2"`
}

// DefaultProjectParams returns the parameters assumed when the caller gives none.
func DefaultProjectParams() ProjectParams {
	return ProjectParams{
		ApplicationType:      AppExtension,
		PropertyType:         PropSemiDetached,
		NumStoreys:           1,
		EstimatedFloorAreaM2: 30,
	}
}

// ProjectInput is a project as supplied by a caller. Nil fields take their
// value from DefaultProjectParams; a set field is kept as given, so an
// explicit zero storeys or floor area reaches Validate and is rejected.
type ProjectInput struct {
	ApplicationType      *ApplicationType `json:"application_type,omitempty"`
	PropertyType         *PropertyType    `json:"property_type,omitempty"`
	NumStoreys           *int             `json:"num_storeys,omitempty"`
	EstimatedFloorAreaM2 *float64         `json:"estimated_floor_area_m2,omitempty"`
}

// Resolve fills unset fields from the defaults. A nil input resolves to
// DefaultProjectParams.
func (in *ProjectInput) Resolve() ProjectParams {
	p := DefaultProjectParams()
	if in == nil {
		return p
	}
	if in.ApplicationType != nil {
		p.ApplicationType = *in.ApplicationType
	}
	if in.PropertyType != nil {
		p.PropertyType = *in.PropertyType
	}
	if in.NumStoreys != nil {
		p.NumStoreys = *in.NumStoreys
	}
	if in.EstimatedFloorAreaM2 != nil {
		p.EstimatedFloorAreaM2 = *in.EstimatedFloorAreaM2
	}
	return p
}

// Validate checks enum membership and numeric ranges.
func (p ProjectParams) Validate() error {
	if !p.ApplicationType.Valid() {
		return eris.Errorf("unknown application_type %q", p.ApplicationType)
	}
	if !p.PropertyType.Valid() {
		return eris.Errorf("unknown property_type %q", p.PropertyType)
	}
	if p.NumStoreys < 1 {
		return eris.Errorf("num_storeys must be >= 1, got %d", p.NumStoreys)
	}
	if !finite(p.EstimatedFloorAreaM2) || p.EstimatedFloorAreaM2 <= 0 {
		return eris.Errorf("estimated_floor_area_m2 must be > 0, got %g", p.EstimatedFloorAreaM2)
	}
	return nil
}

// finite reports whether v is neither NaN nor an infinity.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
