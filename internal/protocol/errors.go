package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrVersionMismatch = "E_VERSION_MISMATCH"

	// Session/episode layer.
	ErrSessionUnknown = "E_SESSION_UNKNOWN"
	ErrWorldBusy      = "E_WORLD_BUSY"
	ErrBadReset       = "E_BAD_RESET"

	// Command layer.
	ErrBadCommand    = "E_BAD_COMMAND"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrVersionMismatch: {},
	ErrSessionUnknown:  {},
	ErrWorldBusy:       {},
	ErrBadReset:        {},
	ErrBadCommand:      {},
	ErrInvalidTarget:   {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
