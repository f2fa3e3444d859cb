package wizard

import (
	"errors"

	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/i18n"
	"github.com/fpang/retouch-studio/internal/imaging"
	"golang.org/x/text/language"
)

var stepLabels = map[Step]string{
	StepUpload:    i18n.MsgStepUpload,
	StepRetouch:   i18n.MsgStepRetouch,
	StepHarmonize: i18n.MsgStepHarmonize,
	StepDone:      i18n.MsgStepDone,
}

// StepLabel returns the localized name of step.
func StepLabel(step Step, tag language.Tag) string {
	return i18n.Sprintf(tag, stepLabels[step])
}

var sentinelMessages = []struct {
	err error
	key string
}{
	{ErrNoImage, i18n.MsgNoImage},
	{ErrNoReference, i18n.MsgNoImage},
	{ErrEmptySelection, i18n.MsgNothingToApply},
	{ErrNoEnhancedResult, i18n.MsgNothingToApply},
	{ErrUnparsableResult, i18n.MsgUnparsableResult},
	{ErrUnreadableImage, i18n.MsgUnreadableImage},
	{ErrWrongStep, i18n.MsgWrongStep},
	{ErrBusy, i18n.MsgBusy},
	{ErrStale, i18n.MsgStale},
	{ErrHandleLimit, i18n.MsgTooManyPreviews},
	{gemini.ErrNoColors, i18n.MsgNothingToApply},
}

// Describe renders err as the user-facing message shown in tag's language.
// Remote failures keep the cause's detail embedded in the message.
func Describe(err error, tag language.Tag) string {
	if err == nil {
		return ""
	}

	var opErr *gemini.RemoteOperationError
	if errors.As(err, &opErr) {
		return i18n.Sprintf(tag, operationMessage(opErr.Op), describeCause(opErr.Op, opErr.Cause, tag))
	}

	var vErr *imaging.ValidationError
	if errors.As(err, &vErr) {
		switch vErr.Reason {
		case imaging.ReasonUnsupportedType:
			return i18n.Sprintf(tag, i18n.MsgUnsupportedType)
		case imaging.ReasonTooLarge:
			return i18n.Sprintf(tag, i18n.MsgFileTooLarge)
		case imaging.ReasonEmpty:
			return i18n.Sprintf(tag, i18n.MsgEmptyFile)
		case imaging.ReasonTooManyPixels:
			return i18n.Sprintf(tag, i18n.MsgTooManyPixels, vErr.Width, vErr.Height, imaging.MaxPixels/1_000_000)
		default:
			return i18n.Sprintf(tag, i18n.MsgContentMismatch)
		}
	}

	var pErr *gemini.ParameterError
	if errors.As(err, &pErr) {
		if pErr.Field == "count" {
			return i18n.Sprintf(tag, i18n.MsgPaletteSize, gemini.MinPaletteSize, gemini.MaxPaletteSize)
		}
		return i18n.Sprintf(tag, i18n.MsgInvalidValue, pErr.Field, pErr.Value)
	}

	for _, m := range sentinelMessages {
		if errors.Is(err, m.err) {
			return i18n.Sprintf(tag, m.key)
		}
	}
	return i18n.Sprintf(tag, i18n.MsgUnknownError)
}

func operationMessage(op gemini.Operation) string {
	switch op {
	case gemini.OpEnhance:
		return i18n.MsgEnhanceFailed
	case gemini.OpExtract:
		return i18n.MsgExtractFailed
	case gemini.OpTransfer:
		return i18n.MsgTransferFailed
	default:
		return i18n.MsgSuggestFailed
	}
}

func describeCause(op gemini.Operation, cause error, tag language.Tag) string {
	var genErr *gemini.GenerationFailure
	if errors.As(cause, &genErr) {
		var detail string
		switch genErr.Cause {
		case gemini.CauseBlocked:
			detail = i18n.Sprintf(tag, i18n.MsgBlockReason, genErr.Detail)
		case gemini.CauseAbnormalFinish:
			detail = i18n.Sprintf(tag, i18n.MsgFinishReason, genErr.Detail)
		case gemini.CauseTextOnly:
			detail = i18n.Sprintf(tag, i18n.MsgModelText, genErr.Detail)
		default:
			detail = i18n.Sprintf(tag, i18n.MsgEmptyResponse)
		}
		if op == gemini.OpEnhance || op == gemini.OpTransfer {
			return i18n.Sprintf(tag, i18n.MsgImageGenerationFailed, detail)
		}
		return i18n.Sprintf(tag, i18n.MsgNoResult, detail)
	}

	var parseErr *gemini.ParseFailure
	if errors.As(cause, &parseErr) {
		detail := parseErr.Reason
		if parseErr.Err != nil {
			detail += ": " + parseErr.Err.Error()
		}
		if op == gemini.OpSuggest {
			return i18n.Sprintf(tag, i18n.MsgInvalidSuggestion, detail)
		}
		return i18n.Sprintf(tag, i18n.MsgInvalidPalette, detail)
	}

	var te *gemini.TransportError
	if errors.As(cause, &te) {
		return i18n.Sprintf(tag, i18n.MsgTransportFailed, te.Err.Error())
	}

	if errors.Is(cause, gemini.ErrNoColors) {
		return i18n.Sprintf(tag, i18n.MsgNothingToApply)
	}
	return cause.Error()
}
