// Package backendtest runs an in-process fake backend speaking the real
// wire protocol, with a scripted mini-world: enough simulation to exercise
// handshakes, resets, tick advancement, item drops and induced faults.
package backendtest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"minegym.ai/internal/protocol"
	"minegym.ai/internal/voxel"
)

type Options struct {
	// WireVersion overrides the version stamped on outgoing messages.
	// Defaults to protocol.Version; set to something else to provoke
	// decode failures on the client.
	WireVersion string

	// CrashAfterActs severs the connection after N ACT messages (0: never).
	CrashAfterActs int
	// SilentAfterActs stops replying after N ACT messages (0: never).
	SilentAfterActs int
	// MalformedObsAfterActs replies with garbage after N ACT messages.
	MalformedObsAfterActs int

	// TickStride is backend ticks advanced per ACT. Default 1.
	TickStride int
	// AttacksPerWool is shears-attacks needed per wool drop. Default 2.
	AttacksPerWool int
}

type Server struct {
	http *httptest.Server
	opts Options

	upgrader websocket.Upgrader
}

func New(opts Options) *Server {
	if opts.WireVersion == "" {
		opts.WireVersion = protocol.Version
	}
	if opts.TickStride <= 0 {
		opts.TickStride = 1
	}
	if opts.AttacksPerWool <= 0 {
		opts.AttacksPerWool = 2
	}
	s := &Server{opts: opts}
	s.http = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the websocket address of the fake backend.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.http.URL, "http")
}

func (s *Server) Close() { s.http.Close() }

type world struct {
	tick      uint64
	pos       [3]float64
	yaw       float64
	pitch     float64
	health    float64
	food      float64
	inventory map[int]protocol.ItemStack
	mainHand  string
	biome     string
	seed      int64

	hasSheep     bool
	sheepHealth  float64
	shearsSwings int

	frameW, frameH int
	voxelRadius    int

	pending []protocol.Event
}

func (s *Server) handle(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		return
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return
	}
	if !protocol.IsSupportedVersion(hello.ProtocolVersion) {
		_ = s.writeJSON(conn, protocol.ErrorMsg{
			Type: protocol.TypeError, ProtocolVersion: s.opts.WireVersion,
			Code: protocol.ErrVersionMismatch, Message: "unsupported version",
		})
		return
	}

	w := &world{
		health: 20, food: 20, biome: "PLAINS",
		inventory:   map[int]protocol.ItemStack{},
		frameW:      hello.Capabilities.FrameWidth,
		frameH:      hello.Capabilities.FrameHeight,
		voxelRadius: hello.Capabilities.VoxelRadius,
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: s.opts.WireVersion,
		SelectedVersion: s.opts.WireVersion,
		SessionID:       "S-" + uuid.NewString(),
		AgentID:         "A1",
		WorldParams: protocol.WorldParams{
			TickRateHz: 20, VoxelRadius: w.voxelRadius, DayTicks: 24000, Seed: 1,
		},
	}
	if err := s.writeJSON(conn, welcome); err != nil {
		return
	}

	acts := 0
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeReset:
			var rst protocol.ResetMsg
			if err := json.Unmarshal(msg, &rst); err != nil {
				continue
			}
			s.applyReset(w, &rst)
			if err := s.writeJSON(conn, s.snapshot(w, welcome.SessionID)); err != nil {
				return
			}
		case protocol.TypeAct:
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			acts++
			if s.opts.CrashAfterActs > 0 && acts >= s.opts.CrashAfterActs {
				return
			}
			if s.opts.SilentAfterActs > 0 && acts >= s.opts.SilentAfterActs {
				continue
			}
			s.applyAct(w, &act)
			if s.opts.MalformedObsAfterActs > 0 && acts >= s.opts.MalformedObsAfterActs {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"OBS","protocol_version":"`+s.opts.WireVersion+`","voxels":{"encoding":"GZIP"}}`))
				continue
			}
			st := s.snapshot(w, welcome.SessionID)
			st.Events = w.drainEvents()
			if err := s.writeJSON(conn, st); err != nil {
				return
			}
		case protocol.TypeBye:
			return
		}
	}
}

func (s *Server) applyReset(w *world, rst *protocol.ResetMsg) {
	if rst.Mode == protocol.ResetModeFast {
		// Keep the world tick and terrain; just replay control commands.
		for _, c := range rst.Commands {
			if c.Kind == protocol.CmdControl && strings.HasPrefix(c.Raw, "/clear") {
				w.inventory = map[int]protocol.ItemStack{}
			}
		}
		w.shearsSwings = 0
		if w.hasSheep {
			w.sheepHealth = 8
		}
		w.tick++
		return
	}

	w.tick = 0
	w.shearsSwings = 0
	w.hasSheep = false
	w.inventory = map[int]protocol.ItemStack{}
	w.health, w.food = 20, 20
	if g := rst.WorldGen; g != nil {
		w.seed = g.Seed
		if g.Biome != "" {
			w.biome = g.Biome
		}
		for _, st := range g.Structures {
			if st == "SHEEP_PEN" {
				w.hasSheep = true
				w.sheepHealth = 8
			}
		}
	}
	if a := rst.AgentStart; a != nil {
		w.pos = a.Pos
		w.yaw, w.pitch = a.Yaw, a.Pitch
		for _, st := range a.Inventory {
			w.inventory[st.Slot] = st
		}
		w.mainHand = a.MainHand
	}
}

func (w *world) drainEvents() []protocol.Event {
	ev := w.pending
	w.pending = nil
	if ev == nil {
		ev = []protocol.Event{}
	}
	return ev
}

func (s *Server) applyAct(w *world, act *protocol.ActMsg) {
	w.tick += uint64(s.opts.TickStride)
	for _, c := range act.Commands {
		switch c.Kind {
		case protocol.CmdMove:
			w.pos[0] += c.Move[0]
			w.pos[2] += c.Move[1]
		case protocol.CmdCamera:
			w.yaw += c.Camera[0]
			w.pitch += c.Camera[1]
		case protocol.CmdEquip:
			w.mainHand = c.Item
		case protocol.CmdAttack:
			if w.hasSheep && w.mainHand == "SHEARS" {
				w.shearsSwings++
				if w.shearsSwings >= s.opts.AttacksPerWool {
					w.shearsSwings = 0
					w.addItem("WOOL", 1)
					w.pending = append(w.pending, protocol.Event{Kind: protocol.EventItemPickup, Item: "WOOL", Count: 1})
				}
			}
		case protocol.CmdCraft:
			if c.Item == "PLANKS" && w.takeItem("LOG", 1) {
				w.addItem("PLANKS", 4)
				w.pending = append(w.pending, protocol.Event{Kind: protocol.EventItemCrafted, Item: "PLANKS", Count: 4})
			}
		}
	}
}

func (w *world) addItem(item string, n int) {
	for slot, st := range w.inventory {
		if st.Item == item {
			st.Count += n
			w.inventory[slot] = st
			return
		}
	}
	slot := 0
	for {
		if _, used := w.inventory[slot]; !used {
			w.inventory[slot] = protocol.ItemStack{Slot: slot, Item: item, Count: n}
			return
		}
		slot++
	}
}

func (w *world) takeItem(item string, n int) bool {
	for slot, st := range w.inventory {
		if st.Item == item && st.Count >= n {
			st.Count -= n
			if st.Count == 0 {
				delete(w.inventory, slot)
			} else {
				w.inventory[slot] = st
			}
			return true
		}
	}
	return false
}

func (s *Server) snapshot(w *world, sessionID string) protocol.StateMsg {
	st := protocol.StateMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: s.opts.WireVersion,
		SessionID:       sessionID,
		Tick:            w.tick,
	}
	st.Player = protocol.PlayerState{
		Pos: w.pos, Yaw: w.yaw, Pitch: w.pitch,
		Health: w.health, Food: w.food,
	}
	st.Inventory = []protocol.ItemStack{}
	for _, stack := range w.inventory {
		st.Inventory = append(st.Inventory, stack)
	}
	st.Equipment = protocol.Equipment{MainHand: w.mainHand}
	st.World = protocol.WorldState{Biome: w.biome, TimeOfDay: 0, Weather: "CLEAR"}

	side := 2*w.voxelRadius + 1
	st.Voxels = protocol.VoxelWindow{
		Center:   [3]int{int(w.pos[0]), int(w.pos[1]), int(w.pos[2])},
		Radius:   w.voxelRadius,
		Encoding: "RLE",
		Data:     voxel.Encode(make([]uint16, side*side*side)),
	}

	st.Entities = []protocol.Entity{}
	if w.hasSheep {
		st.Entities = append(st.Entities, protocol.Entity{
			ID: "E-sheep-1", Type: "SHEEP",
			Pos:    [3]float64{w.pos[0] + 1, w.pos[1], w.pos[2]},
			Health: w.sheepHealth,
		})
	}
	st.Events = []protocol.Event{}

	if w.frameW > 0 && w.frameH > 0 {
		st.Frame = &protocol.Frame{
			Width: w.frameW, Height: w.frameH,
			Encoding: protocol.FrameEncodingRGB8,
			Data:     base64.StdEncoding.EncodeToString(make([]byte, w.frameW*w.frameH*3)),
		}
	}
	return st
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
