package obs

import (
	"encoding/base64"
	"fmt"

	"minegym.ai/internal/protocol"
	"minegym.ai/internal/voxel"
)

// InventorySlots is the fixed slot count of the observation contract.
const InventorySlots = 36

// Config fixes the observation shape for one environment instance.
type Config struct {
	FrameWidth  int
	FrameHeight int
	VoxelRadius int
}

// Observation is the fixed-shape multimodal record handed to agents.
// Shape and field set are identical across all tasks; only content varies.
// Omitted backend data is filled with sentinels: a zero frame, air voxels,
// empty inventory slots and zero GPS.
type Observation struct {
	// Frame is FrameWidth*FrameHeight*3 bytes, row-major RGB.
	Frame       []byte
	FrameWidth  int
	FrameHeight int

	Compass     Compass
	GPS         [3]float64
	Voxels      []uint16 // (2*VoxelRadius+1)^3 cells, x-major then y then z
	VoxelRadius int

	Inventory [InventorySlots]Slot
	MainHand  string

	Biome     string
	TimeOfDay float64
	Health    float64
	Food      float64
	XP        int
}

type Compass struct {
	Yaw   float64
	Pitch float64
}

type Slot struct {
	Item  string
	Count int
}

// Normalize maps one raw snapshot into the fixed observation shape. Pure:
// no backend interaction, no retained state. Corrupt payloads (bad base64,
// bad RLE, frame size mismatch) are errors; merely absent data is not.
func Normalize(st *protocol.StateMsg, cfg Config) (Observation, error) {
	o := Observation{
		FrameWidth:  cfg.FrameWidth,
		FrameHeight: cfg.FrameHeight,
		VoxelRadius: cfg.VoxelRadius,
		MainHand:    st.Equipment.MainHand,
		Biome:       st.World.Biome,
		TimeOfDay:   st.World.TimeOfDay,
		Health:      st.Player.Health,
		Food:        st.Player.Food,
		XP:          st.Player.XP,
		GPS:         st.Player.Pos,
		Compass:     Compass{Yaw: st.Player.Yaw, Pitch: st.Player.Pitch},
	}

	frame, err := normalizeFrame(st.Frame, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		return Observation{}, err
	}
	o.Frame = frame

	vox, err := normalizeVoxels(st.Voxels, cfg.VoxelRadius)
	if err != nil {
		return Observation{}, err
	}
	o.Voxels = vox

	for _, s := range st.Inventory {
		if s.Slot < 0 || s.Slot >= InventorySlots {
			continue
		}
		o.Inventory[s.Slot] = Slot{Item: s.Item, Count: s.Count}
	}

	return o, nil
}

func normalizeFrame(f *protocol.Frame, w, h int) ([]byte, error) {
	out := make([]byte, w*h*3)
	if f == nil || f.Data == "" {
		return out, nil
	}
	raw, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, fmt.Errorf("frame data: %w", err)
	}
	if len(raw) != f.Width*f.Height*3 {
		return nil, fmt.Errorf("frame size: got %d bytes for %dx%d", len(raw), f.Width, f.Height)
	}
	if f.Width == w && f.Height == h {
		copy(out, raw)
		return out, nil
	}
	// Resolution mismatch: center-copy the overlap, leave the rest black.
	// No resampling here; pixel semantics belong to the backend.
	cw := min(w, f.Width)
	ch := min(h, f.Height)
	for y := 0; y < ch; y++ {
		src := y * f.Width * 3
		dst := y * w * 3
		copy(out[dst:dst+cw*3], raw[src:src+cw*3])
	}
	return out, nil
}

func normalizeVoxels(v protocol.VoxelWindow, radius int) ([]uint16, error) {
	side := 2*radius + 1
	out := make([]uint16, side*side*side)
	if v.Data == "" {
		return out, nil
	}
	srcSide := 2*v.Radius + 1
	cells, err := voxel.Decode(v.Data, srcSide*srcSide*srcSide)
	if err != nil {
		return nil, fmt.Errorf("voxel data: %w", err)
	}
	if v.Radius == radius {
		copy(out, cells)
		return out, nil
	}
	// Window size mismatch: copy the centered overlap.
	r := min(radius, v.Radius)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				src := (dx+v.Radius)*srcSide*srcSide + (dy+v.Radius)*srcSide + (dz + v.Radius)
				dst := (dx+radius)*side*side + (dy+radius)*side + (dz + radius)
				out[dst] = cells[src]
			}
		}
	}
	return out, nil
}
