package protocol

import "encoding/json"

const Version = "1.0"

// SupportedVersions lists wire versions this codec can speak, preferred first.
var SupportedVersions = []string{"1.0"}

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeReset   = "RESET"
	TypeAct     = "ACT"
	TypeObs     = "OBS"
	TypeError   = "ERROR"
	TypeBye     = "BYE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

func IsSupportedVersion(v string) bool {
	for _, s := range SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}
