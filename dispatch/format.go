package dispatch

import (
	"fmt"
	"strings"

	"h3mem/entity"
	"h3mem/layout"
)

// FormatPlayer renders the player as a tree:
//
//	@ Player:
//	+---| Current Hero (3):
//	|   +---| Name: Orrin
//	...
//	\---| Ressources:
//	    \---| Gold: 30000
func FormatPlayer(p *entity.Player) string {
	hero := p.Hero()
	field := func(name string) string {
		v, err := hero.Get(name)
		if err != nil {
			return "?"
		}
		return v.String()
	}

	var b strings.Builder
	b.WriteString("@ Player:\n")
	fmt.Fprintf(&b, "+---| Current Hero (%d):\n", p.HeroIndex())
	fmt.Fprintf(&b, "|   +---| Name: %s\n", field("name"))
	fmt.Fprintf(&b, "|   +---| Level: %s\n", field("level"))
	fmt.Fprintf(&b, "|   +---| XP: %s\n", field("xp"))
	fmt.Fprintf(&b, "|   +---| Position: (%s, %s)\n", field("x"), field("y"))
	fmt.Fprintf(&b, "|   +---| Next position: (%s, %s)\n", field("nextX"), field("nextY"))
	fmt.Fprintf(&b, "|   \\---| Movement per day: %s\n", field("movementLimit"))
	b.WriteString("|\n")
	b.WriteString("\\---| Ressources:\n")

	resources := p.Snapshot()
	for i, fv := range resources {
		branch := "+"
		if i == len(resources)-1 {
			branch = "\\"
		}
		fmt.Fprintf(&b, "    %s---| %s: %s\n", branch, Label(fv.Field), fv.Value)
	}
	return b.String()
}

// Label is the display name of a field: "wood" becomes "Wood", "nextX" becomes "NextX".
func Label(f layout.FieldSpec) string {
	if f.Name == "" {
		return ""
	}
	return strings.ToUpper(f.Name[:1]) + f.Name[1:]
}
