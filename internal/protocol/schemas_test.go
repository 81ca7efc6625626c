package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"minegym.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	resetSchema := compile("reset.schema.json")
	obsSchema := compile("obs.schema.json")
	actSchema := compile("act.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "supported_versions":["1.0"],
	  "agent_name":"rollout",
	  "capabilities":{"frame_width":160,"frame_height":120,"voxel_radius":3,"headless":true}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "selected_version":"1.0",
	  "session_id":"S1",
	  "agent_id":"A1",
	  "world_params":{"tick_rate_hz":20,"voxel_radius":3,"day_ticks":24000,"seed":1337}
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var reset any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESET",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "mode":"FULL",
	  "world_gen":{"seed":1337,"biome":"PLAINS","start_time":0,"weather":"CLEAR"},
	  "agent_start":{"pos":[0,64,0],"yaw":0,"pitch":0,"game_mode":"SURVIVAL",
	    "inventory":[{"slot":0,"item":"SHEARS","count":1}],"main_hand":"SHEARS"}
	}`), &reset)
	validate(resetSchema, reset)

	var obs any
	_ = json.Unmarshal([]byte(`{
	  "type":"OBS",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "tick":0,
	  "player":{"pos":[0.5,64.0,0.5],"yaw":0,"pitch":0,"health":20,"food":20,"xp":0},
	  "inventory":[{"slot":0,"item":"SHEARS","count":1}],
	  "equipment":{"main_hand":"SHEARS"},
	  "world":{"biome":"PLAINS","time_of_day":0.0,"weather":"CLEAR"},
	  "voxels":{"center":[0,64,0],"radius":3,"encoding":"RLE","data":"AAE="},
	  "entities":[{"id":"E1","type":"SHEEP","pos":[2,64,0],"health":8}],
	  "events":[],
	  "frame":{"width":2,"height":2,"encoding":"RGB8","data":"AAAAAAAAAAAAAAAA"}
	}`), &obs)
	validate(obsSchema, obs)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "tick":0,
	  "commands":[
	    {"kind":"MOVE","move":[1,0,0]},
	    {"kind":"CAMERA","camera":[10,-5]},
	    {"kind":"ATTACK"}
	  ]
	}`), &act)
	validate(actSchema, act)
}

func TestSchemas_MatchCodecOutput(t *testing.T) {
	c := protocol.NewCodec(protocol.Version)
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "act.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := c.EncodeAct(protocol.ActMsg{SessionID: "S1", Tick: 4, Commands: []protocol.Command{{Kind: protocol.CmdUse}}})
	if err != nil {
		t.Fatalf("EncodeAct: %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("codec output violates schema: %v", err)
	}
}
