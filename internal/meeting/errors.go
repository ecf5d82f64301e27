package meeting

import "errors"

var (
	// ErrValidation is a missing or malformed user input.
	ErrValidation = errors.New("validation failed")
	// ErrCallCreation means the video provider returned no call object.
	ErrCallCreation = errors.New("call creation failed")
	// ErrSDKRequest is any other failure of the create or finalize round trip.
	ErrSDKRequest = errors.New("video sdk request failed")
	ErrClipboard  = errors.New("clipboard write failed")

	ErrInvalidState     = errors.New("action not valid in current state")
	ErrCreationInFlight = errors.New("meeting creation already in flight")
)

// Code classifies err for transports. Empty for nil.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrCallCreation):
		return "call_creation"
	case errors.Is(err, ErrSDKRequest):
		return "sdk_request"
	case errors.Is(err, ErrClipboard):
		return "clipboard"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrCreationInFlight):
		return "creation_in_flight"
	default:
		return "internal"
	}
}
