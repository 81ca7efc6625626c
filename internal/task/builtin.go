package task

// Builtin returns a registry preloaded with the stock task set.
func Builtin() *Registry {
	r := NewRegistry()
	for _, s := range builtinSpecs() {
		if err := r.Register(s); err != nil {
			// Builtin specs are fixed at compile time; a validation
			// failure here is a programming error.
			panic(err)
		}
	}
	return r
}

func builtinSpecs() []Spec {
	return []Spec{
		{
			ID: "harvest_wool_with_shears_and_sheep",
			WorldGen: WorldGen{
				Seed:       1042,
				Biome:      "PLAINS",
				Structures: []string{"SHEEP_PEN"},
				StartTime:  0,
			},
			AgentStart: AgentStart{
				Pos:       [3]float64{0.5, 64, 0.5},
				Inventory: []Stack{{Slot: 0, Item: "SHEARS", Count: 1}},
				MainHand:  "SHEARS",
			},
			AllowedActions: []string{ActUse, ActAttack, ActEquip},
			AllowedItems:   []string{"SHEARS", "WOOL"},
			Success:        &Predicate{Kind: PredInventoryThreshold, Item: "WOOL", Count: 1},
			Reward:         Reward{Kind: RewardInventoryDelta, Item: "WOOL", PerItem: 0.1, Value: 1},
			MaxSteps:       500,
			FastResetSafe:  true,
		},
		{
			ID: "harvest_milk",
			WorldGen: WorldGen{
				Seed:       1043,
				Biome:      "PLAINS",
				Structures: []string{"COW_PEN"},
				StartTime:  0,
			},
			AgentStart: AgentStart{
				Pos:       [3]float64{0.5, 64, 0.5},
				Inventory: []Stack{{Slot: 0, Item: "BUCKET", Count: 1}},
				MainHand:  "BUCKET",
			},
			AllowedActions: []string{ActUse, ActEquip},
			AllowedItems:   []string{"BUCKET", "MILK_BUCKET"},
			Success:        &Predicate{Kind: PredInventoryThreshold, Item: "MILK_BUCKET", Count: 1},
			Reward:         Reward{Kind: RewardSparse, Value: 1},
			MaxSteps:       500,
			FastResetSafe:  true,
		},
		{
			ID: "combat_zombie",
			WorldGen: WorldGen{
				Seed:       1044,
				Biome:      "PLAINS",
				Structures: []string{"ZOMBIE_SPAWN"},
				StartTime:  18000, // night
			},
			AgentStart: AgentStart{
				Pos:       [3]float64{0.5, 64, 0.5},
				Inventory: []Stack{{Slot: 0, Item: "IRON_SWORD", Count: 1}},
				MainHand:  "IRON_SWORD",
			},
			AllowedActions: []string{ActAttack, ActEquip},
			AllowedItems:   []string{"IRON_SWORD", "ROTTEN_FLESH"},
			Success:        &Predicate{Kind: PredInventoryThreshold, Item: "ROTTEN_FLESH", Count: 1},
			Failure:        &Predicate{Kind: PredAgentDead},
			Reward:         Reward{Kind: RewardSparse, Value: 1},
			MaxSteps:       1000,
		},
		{
			ID: "craft_planks",
			WorldGen: WorldGen{
				Seed:  1045,
				Biome: "FOREST",
			},
			AgentStart: AgentStart{
				Pos:       [3]float64{0.5, 64, 0.5},
				Inventory: []Stack{{Slot: 0, Item: "LOG", Count: 4}},
			},
			AllowedActions: []string{ActCraft, ActEquip, ActDrop},
			AllowedItems:   []string{"LOG", "PLANKS"},
			Success:        &Predicate{Kind: PredInventoryThreshold, Item: "PLANKS", Count: 4},
			Reward:         Reward{Kind: RewardInventoryDelta, Item: "PLANKS", PerItem: 0.05, Value: 1},
			MaxSteps:       300,
			FastResetSafe:  true,
		},
		{
			ID: "navigate_to_ruin",
			WorldGen: WorldGen{
				Seed:       1046,
				Biome:      "PLAINS",
				Structures: []string{"RUIN"},
			},
			AgentStart: AgentStart{
				Pos: [3]float64{0.5, 64, 0.5},
			},
			AllowedActions: []string{ActUse},
			Success:        &Predicate{Kind: PredGoalReached, Target: [3]float64{40, 64, 40}, Tolerance: 2},
			Reward:         Reward{Kind: RewardDistanceDelta, Target: [3]float64{40, 64, 40}, PerBlock: 0.02, Value: 1},
			MaxSteps:       2000,
			FastResetSafe:  true,
		},
		{
			ID: "survive_one_day",
			WorldGen: WorldGen{
				Seed:  1047,
				Biome: "FOREST",
			},
			AgentStart: AgentStart{
				Pos: [3]float64{0.5, 64, 0.5},
			},
			AllowedActions: []string{ActUse, ActAttack, ActPlace, ActDestroy, ActCraft, ActEquip, ActDrop},
			Success:        &Predicate{Kind: PredSurvivalTimer, Ticks: 24000},
			Failure:        &Predicate{Kind: PredAgentDead},
			Reward:         Reward{Kind: RewardSparse, Value: 1},
			MaxSteps:       24000,
		},
	}
}
