package layout

import "h3mem/chain"

// Heroes3 is the table for HEROES3.EXE (Shadow of Death, 32-bit).
var Heroes3 = &Layout{
	Version:     "heroes3-sod",
	ProcessName: "HEROES3.EXE",
	PointerSize: 4,

	PlayerChain:    chain.Spec{chain.Add(0x29ccb0), chain.Deref()},
	HeroArrayChain: chain.Spec{chain.Add(0x2994e8), chain.Deref(), chain.Add(0x21620)},

	HeroIndexOffset: 0x4,
	HeroRecordSize:  1170,
	HeroCount:       156,

	Player: []FieldSpec{
		{Name: "wood", Offset: 0x9c, Encoding: Int32, Writable: true},
		{Name: "mercury", Offset: 0xa0, Encoding: Int32, Writable: true},
		{Name: "ore", Offset: 0xa4, Encoding: Int32, Writable: true},
		{Name: "sulfur", Offset: 0xa8, Encoding: Int32, Writable: true},
		{Name: "crystal", Offset: 0xac, Encoding: Int32, Writable: true},
		{Name: "gem", Offset: 0xb0, Encoding: Int32, Writable: true},
		{Name: "gold", Offset: 0xb4, Encoding: Int32, Writable: true},
	},

	Hero: []FieldSpec{
		{Name: "x", Offset: 0x00, Encoding: Int16},
		{Name: "y", Offset: 0x02, Encoding: Int16},
		{Name: "name", Offset: 0x23, Encoding: CString, MaxLen: 13},
		{Name: "nextX", Offset: 0x35, Encoding: Int32},
		{Name: "nextY", Offset: 0x39, Encoding: Int32},
		{Name: "movementLimit", Offset: 0x4d, Encoding: Int32, Writable: true},
		{Name: "xp", Offset: 0x51, Encoding: Int32, Writable: true},
		{Name: "level", Offset: 0x55, Encoding: Int16, Writable: true},
	},

	Aliases: map[string]string{
		"xp":            "xp",
		"level":         "level",
		"movementLimit": "movementLimit",
		"movelimit":     "movementLimit",
	},
}
