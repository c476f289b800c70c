package service

import (
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/model"
)

// EffectiveFlow resolves the flow used for filtering: explicit request
// parameter, else the flow stored on the scan, else partner.
//
// The partner fallback is fail-open (full access) and preserved for
// behavior compatibility with the existing deployment; callers log when
// it fires.
func EffectiveFlow(explicit string, stored model.FlowType) model.FlowType {
	if model.IsValidFlowType(explicit) {
		return model.FlowType(explicit)
	}
	if model.IsValidFlowType(string(stored)) {
		return stored
	}
	return model.FlowPartner
}

// FilterResult redacts a stored result down to what the caller's flow
// permits. Pure capability-based mapping:
//
//	gym      → whitening fields only
//	school   → simplified category only
//	charity  → priority/eligibility score only
//	partner, clinic, or full access → everything
func FilterResult(raw *model.ScanResult, flow model.FlowType, hasFullAccess bool) *dto.ResultView {
	if raw == nil {
		return nil
	}

	view := &dto.ResultView{Flow: flow}

	if hasFullAccess || flow == model.FlowPartner || flow == model.FlowClinic {
		view.Whitening = raw.Whitening
		view.School = raw.School
		view.Charity = raw.Charity
		view.Pathology = raw.Pathology
		view.Summary = raw.Summary
		return view
	}

	switch flow {
	case model.FlowGym:
		view.Whitening = raw.Whitening
	case model.FlowSchool:
		view.School = raw.School
	case model.FlowCharity:
		view.Charity = raw.Charity
	}

	return view
}
