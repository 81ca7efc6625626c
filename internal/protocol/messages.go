package protocol

// HELLO (client -> backend)
type HelloMsg struct {
	Type              string            `json:"type"`
	ProtocolVersion   string            `json:"protocol_version"`
	SupportedVersions []string          `json:"supported_versions,omitempty"`
	AgentName         string            `json:"agent_name"`
	Capabilities      HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	FrameWidth  int  `json:"frame_width"`
	FrameHeight int  `json:"frame_height"`
	VoxelRadius int  `json:"voxel_radius"`
	Headless    bool `json:"headless,omitempty"`
}

// WELCOME (backend -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SelectedVersion string      `json:"selected_version,omitempty"`
	SessionID       string      `json:"session_id"`
	AgentID         string      `json:"agent_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz  int   `json:"tick_rate_hz"`
	VoxelRadius int   `json:"voxel_radius"`
	DayTicks    int   `json:"day_ticks"`
	Seed        int64 `json:"seed"`
}

// RESET (client -> backend): start a fresh episode. Mode FULL regenerates
// the world from WorldGen; mode FAST reuses the live world and replays
// Commands (teleport, clear inventory, set time) against it.
type ResetMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	Mode            string      `json:"mode"`
	WorldGen        *WorldGen   `json:"world_gen,omitempty"`
	AgentStart      *AgentStart `json:"agent_start,omitempty"`
	Commands        []Command   `json:"commands,omitempty"`
}

const (
	ResetModeFull = "FULL"
	ResetModeFast = "FAST"
)

type WorldGen struct {
	Seed       int64    `json:"seed"`
	Biome      string   `json:"biome,omitempty"`
	Structures []string `json:"structures,omitempty"`
	StartTime  int      `json:"start_time"`
	Weather    string   `json:"weather,omitempty"`
}

type AgentStart struct {
	Pos       [3]float64  `json:"pos"`
	Yaw       float64     `json:"yaw"`
	Pitch     float64     `json:"pitch"`
	GameMode  string      `json:"game_mode"` // "SURVIVAL", "CREATIVE", "HARDCORE"
	Inventory []ItemStack `json:"inventory,omitempty"`
	MainHand  string      `json:"main_hand,omitempty"`
}

// ACT (client -> backend): commands for exactly one tick.
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	SessionID       string    `json:"session_id"`
	Tick            uint64    `json:"tick"`
	Commands        []Command `json:"commands"`
}

// Command kinds accepted by the backend.
const (
	CmdMove    = "MOVE"
	CmdCamera  = "CAMERA"
	CmdUse     = "USE"
	CmdAttack  = "ATTACK"
	CmdPlace   = "PLACE"
	CmdDestroy = "DESTROY"
	CmdCraft   = "CRAFT"
	CmdEquip   = "EQUIP"
	CmdDrop    = "DROP"
	CmdControl = "CONTROL" // privileged slash-style command, resets only
)

type Command struct {
	Kind   string     `json:"kind"`
	Move   [3]float64 `json:"move,omitempty"`   // forward, strafe, jump
	Camera [2]float64 `json:"camera,omitempty"` // dyaw, dpitch (degrees)
	Item   string     `json:"item,omitempty"`
	Raw    string     `json:"raw,omitempty"`
}

// OBS (backend -> client): the world snapshot after one tick. Also sent as
// the first message of a fresh episode after RESET.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Tick            uint64 `json:"tick"`

	Player    PlayerState `json:"player"`
	Inventory []ItemStack `json:"inventory"`
	Equipment Equipment   `json:"equipment"`
	World     WorldState  `json:"world"`
	Voxels    VoxelWindow `json:"voxels"`
	Entities  []Entity    `json:"entities"`
	Events    []Event     `json:"events"`
	Frame     *Frame      `json:"frame,omitempty"`
}

type PlayerState struct {
	Pos    [3]float64 `json:"pos"`
	Yaw    float64    `json:"yaw"`
	Pitch  float64    `json:"pitch"`
	Health float64    `json:"health"`
	Food   float64    `json:"food"`
	XP     int        `json:"xp"`
}

type ItemStack struct {
	Slot  int    `json:"slot"`
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type Equipment struct {
	MainHand string `json:"main_hand"`
}

type WorldState struct {
	Biome     string  `json:"biome"`
	TimeOfDay float64 `json:"time_of_day"` // 0..1
	Weather   string  `json:"weather"`
}

type VoxelWindow struct {
	Center   [3]int `json:"center"`
	Radius   int    `json:"radius"`
	Encoding string `json:"encoding"` // "RLE"
	Data     string `json:"data"`
}

type Entity struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"` // "SHEEP", "ZOMBIE", "ITEM", ...
	Pos    [3]float64 `json:"pos"`
	Health float64    `json:"health,omitempty"`
	Item   string     `json:"item,omitempty"`
	Count  int        `json:"count,omitempty"`
}

// Event kinds emitted in the per-tick log.
const (
	EventItemPickup   = "item_pickup"
	EventItemCrafted  = "item_crafted"
	EventBlockBroken  = "block_broken"
	EventEntityKilled = "entity_killed"
	EventAgentDeath   = "agent_death"
)

type Event struct {
	Kind   string     `json:"kind"`
	Item   string     `json:"item,omitempty"`
	Count  int        `json:"count,omitempty"`
	Entity string     `json:"entity,omitempty"`
	Pos    [3]float64 `json:"pos,omitempty"`
}

// Frame is the rendered first-person view: base64 of raw RGB8 bytes,
// row-major, top-left origin, channel order R,G,B.
type Frame struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Encoding string `json:"encoding"` // "RGB8"
	Data     string `json:"data"`
}

const FrameEncodingRGB8 = "RGB8"

// ERROR (backend -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	Tick            uint64 `json:"tick,omitempty"`
}

// BYE (either direction): orderly session end.
type ByeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Reason          string `json:"reason,omitempty"`
}
