package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCodec_ActRoundTrip(t *testing.T) {
	c := NewCodec(Version)
	b, err := c.EncodeAct(ActMsg{
		SessionID: "S1",
		Tick:      7,
		Commands: []Command{
			{Kind: CmdMove, Move: [3]float64{1, 0, 0}},
			{Kind: CmdAttack},
		},
	})
	if err != nil {
		t.Fatalf("EncodeAct: %v", err)
	}
	var m ActMsg
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Type != TypeAct || m.ProtocolVersion != Version {
		t.Fatalf("bad envelope: %+v", m)
	}
	if m.Tick != 7 || len(m.Commands) != 2 || m.Commands[1].Kind != CmdAttack {
		t.Fatalf("bad payload: %+v", m)
	}
}

func TestCodec_DecodeState(t *testing.T) {
	c := NewCodec(Version)
	good := `{
	  "type":"OBS","protocol_version":"1.0","session_id":"S1","tick":3,
	  "player":{"pos":[0,64,0],"yaw":90,"pitch":0,"health":20,"food":20,"xp":0},
	  "inventory":[{"slot":0,"item":"SHEARS","count":1}],
	  "equipment":{"main_hand":"SHEARS"},
	  "world":{"biome":"PLAINS","time_of_day":0.25,"weather":"CLEAR"},
	  "voxels":{"center":[0,64,0],"radius":3,"encoding":"RLE","data":"AAE="},
	  "entities":[{"id":"E1","type":"SHEEP","pos":[2,64,0],"health":8}],
	  "events":[{"kind":"item_pickup","item":"WOOL","count":1}]
	}`
	st, err := c.DecodeState([]byte(good))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if st.Tick != 3 || st.Player.Yaw != 90 || st.Entities[0].Type != "SHEEP" {
		t.Fatalf("bad state: %+v", st)
	}

	cases := map[string]string{
		"not json":         `{`,
		"wrong type":       `{"type":"WELCOME","protocol_version":"1.0"}`,
		"version mismatch": `{"type":"OBS","protocol_version":"0.7","tick":1}`,
		"bad voxel enc":    `{"type":"OBS","protocol_version":"1.0","voxels":{"encoding":"GZIP"}}`,
		"bad frame enc":    `{"type":"OBS","protocol_version":"1.0","frame":{"width":1,"height":1,"encoding":"PNG","data":""}}`,
	}
	for name, raw := range cases {
		_, err := c.DecodeState([]byte(raw))
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: expected DecodeError, got %v", name, err)
		}
	}
}

func TestDecodeWelcome_Negotiation(t *testing.T) {
	m, err := DecodeWelcome([]byte(`{
	  "type":"WELCOME","protocol_version":"1.0","selected_version":"1.0",
	  "session_id":"S1","agent_id":"A1",
	  "world_params":{"tick_rate_hz":20,"voxel_radius":3,"day_ticks":24000,"seed":42}
	}`))
	if err != nil {
		t.Fatalf("DecodeWelcome: %v", err)
	}
	if m.SessionID != "S1" || m.WorldParams.Seed != 42 {
		t.Fatalf("bad welcome: %+v", m)
	}

	_, err = DecodeWelcome([]byte(`{"type":"WELCOME","protocol_version":"9.9","session_id":"S1"}`))
	if err == nil || !strings.Contains(err.Error(), "unsupported wire version") {
		t.Fatalf("expected unsupported version, got %v", err)
	}

	_, err = DecodeWelcome([]byte(`{"type":"WELCOME","protocol_version":"1.0"}`))
	if err == nil || !strings.Contains(err.Error(), "session_id") {
		t.Fatalf("expected missing session_id, got %v", err)
	}
}

func TestCodec_DecodeErrorMsg_UnknownCodeFolded(t *testing.T) {
	c := NewCodec(Version)
	m, err := c.DecodeError([]byte(`{"type":"ERROR","protocol_version":"1.0","code":"E_NOT_DEFINED","message":"x"}`))
	if err != nil {
		t.Fatalf("DecodeError: %v", err)
	}
	if m.Code != ErrInternal {
		t.Fatalf("unknown code not folded: %q", m.Code)
	}
}
