package protocol

import (
	"encoding/json"
	"fmt"
)

// DecodeError is any failure to turn an incoming message into a typed
// snapshot: malformed JSON, wrong message type, or a protocol version that
// does not match the negotiated one. It is always fatal to the session;
// skipping a bad message would desynchronize tick counters.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol decode: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Codec speaks one negotiated wire version. Encoding stamps the type and
// version fields; decoding rejects anything that does not carry them.
type Codec struct {
	version string
}

func NewCodec(negotiated string) Codec {
	if negotiated == "" {
		negotiated = Version
	}
	return Codec{version: negotiated}
}

func (c Codec) WireVersion() string { return c.version }

func (c Codec) EncodeHello(m HelloMsg) ([]byte, error) {
	m.Type = TypeHello
	m.ProtocolVersion = c.version
	m.SupportedVersions = SupportedVersions
	return json.Marshal(m)
}

func (c Codec) EncodeReset(m ResetMsg) ([]byte, error) {
	m.Type = TypeReset
	m.ProtocolVersion = c.version
	if m.Mode == "" {
		m.Mode = ResetModeFull
	}
	return json.Marshal(m)
}

func (c Codec) EncodeAct(m ActMsg) ([]byte, error) {
	m.Type = TypeAct
	m.ProtocolVersion = c.version
	if m.Commands == nil {
		m.Commands = []Command{}
	}
	return json.Marshal(m)
}

func (c Codec) EncodeBye(reason string) ([]byte, error) {
	return json.Marshal(ByeMsg{Type: TypeBye, ProtocolVersion: c.version, Reason: reason})
}

// DecodeState parses an OBS message. Total over the schema: every failure
// is a *DecodeError, never a partial snapshot.
func (c Codec) DecodeState(b []byte) (StateMsg, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return StateMsg{}, &DecodeError{Reason: "malformed message", Err: err}
	}
	if base.Type != TypeObs {
		return StateMsg{}, &DecodeError{Reason: fmt.Sprintf("expected %s, got %q", TypeObs, base.Type)}
	}
	if base.ProtocolVersion != c.version {
		return StateMsg{}, &DecodeError{Reason: fmt.Sprintf("version %q does not match negotiated %q", base.ProtocolVersion, c.version)}
	}
	var m StateMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return StateMsg{}, &DecodeError{Reason: "malformed OBS", Err: err}
	}
	if m.Voxels.Encoding != "" && m.Voxels.Encoding != "RLE" {
		return StateMsg{}, &DecodeError{Reason: fmt.Sprintf("unknown voxel encoding %q", m.Voxels.Encoding)}
	}
	if m.Frame != nil && m.Frame.Encoding != FrameEncodingRGB8 {
		return StateMsg{}, &DecodeError{Reason: fmt.Sprintf("unknown frame encoding %q", m.Frame.Encoding)}
	}
	return m, nil
}

// DecodeWelcome parses the handshake reply. The WELCOME itself is exempt
// from the negotiated-version check (negotiation happens here), but its
// selected version must be one we support.
func DecodeWelcome(b []byte) (WelcomeMsg, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return WelcomeMsg{}, &DecodeError{Reason: "malformed message", Err: err}
	}
	if base.Type != TypeWelcome {
		return WelcomeMsg{}, &DecodeError{Reason: fmt.Sprintf("expected %s, got %q", TypeWelcome, base.Type)}
	}
	var m WelcomeMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return WelcomeMsg{}, &DecodeError{Reason: "malformed WELCOME", Err: err}
	}
	v := m.SelectedVersion
	if v == "" {
		v = m.ProtocolVersion
	}
	if !IsSupportedVersion(v) {
		return WelcomeMsg{}, &DecodeError{Reason: fmt.Sprintf("unsupported wire version %q", v)}
	}
	if m.SessionID == "" {
		return WelcomeMsg{}, &DecodeError{Reason: "WELCOME missing session_id"}
	}
	return m, nil
}

func (c Codec) DecodeError(b []byte) (ErrorMsg, error) {
	var m ErrorMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return ErrorMsg{}, &DecodeError{Reason: "malformed ERROR", Err: err}
	}
	if !IsKnownCode(m.Code) {
		m.Code = ErrInternal
	}
	return m, nil
}
