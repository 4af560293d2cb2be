// Package app drives the upload, extract, analyze and display sequence and
// the credential modal.
package app

import (
	"resumegrade/internal/errors"
	"resumegrade/internal/types"
)

// Phase is the position of the review flow
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseExtracting Phase = "extracting"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseResults    Phase = "results"
)

// Busy reports whether a flow is in flight
func (p Phase) Busy() bool {
	return p == PhaseExtracting || p == PhaseAnalyzing
}

// Flow messages
const (
	MsgExtracting          = "Extracting text from your resume..."
	MsgAnalyzing           = "AI recruiter reviewing your resume..."
	MsgConfigureCredential = "Please configure your OpenAI API key first"
)

// EventKind identifies what happened
type EventKind int

const (
	EventFileSelected EventKind = iota
	EventExtracted
	EventExtractionFailed
	EventAnalyzed
	EventAnalysisFailed
	EventUnexpected
	EventReset
)

// Event is an input to Step. Only the fields relevant to Kind are set.
type Event struct {
	Kind          EventKind
	HasCredential bool
	Text          string
	Message       string
	Result        *types.AnalysisResult
}

// EffectKind identifies a side effect requested by Step
type EffectKind int

const (
	EffectShowUpload EffectKind = iota
	EffectShowLoading
	EffectShowResults
	EffectShowError
	EffectOpenModal
	EffectStartExtraction
	EffectStartAnalysis
)

// Effect is an action the controller performs after a transition
type Effect struct {
	Kind    EffectKind
	Message string
	Text    string
	Result  *types.AnalysisResult
}

// Step is the flow's transition function. Events that do not apply to the
// current phase leave it unchanged and produce no effects.
func Step(phase Phase, ev Event) (Phase, []Effect) {
	switch ev.Kind {
	case EventFileSelected:
		if phase.Busy() {
			return phase, nil
		}
		if !ev.HasCredential {
			return PhaseIdle, []Effect{
				{Kind: EffectShowError, Message: MsgConfigureCredential},
				{Kind: EffectOpenModal},
			}
		}
		return PhaseExtracting, []Effect{
			{Kind: EffectShowLoading, Message: MsgExtracting},
			{Kind: EffectStartExtraction},
		}

	case EventExtractionFailed:
		if phase != PhaseExtracting {
			return phase, nil
		}
		return PhaseIdle, []Effect{{Kind: EffectShowError, Message: ev.Message}}

	case EventExtracted:
		if phase != PhaseExtracting {
			return phase, nil
		}
		return PhaseAnalyzing, []Effect{
			{Kind: EffectShowLoading, Message: MsgAnalyzing},
			{Kind: EffectStartAnalysis, Text: ev.Text},
		}

	case EventAnalysisFailed:
		if phase != PhaseAnalyzing {
			return phase, nil
		}
		return PhaseIdle, []Effect{{Kind: EffectShowError, Message: ev.Message}}

	case EventAnalyzed:
		if phase != PhaseAnalyzing {
			return phase, nil
		}
		return PhaseResults, []Effect{{Kind: EffectShowResults, Result: ev.Result}}

	case EventUnexpected:
		// valid from any phase; nothing is left in loading
		return PhaseIdle, []Effect{{Kind: EffectShowError, Message: errors.UnexpectedErrorMessage}}

	case EventReset:
		if phase.Busy() {
			return phase, nil
		}
		return PhaseIdle, []Effect{{Kind: EffectShowUpload}}
	}

	return phase, nil
}
