package main

import (
	"fmt"

	"github.com/lox/bluffdeal/internal/game"
)

// ScheduleCmd loads a schedule CSV and prints each round's hands, values and
// categories, failing on malformed rows.
type ScheduleCmd struct {
	Path string `arg:"" help:"Path to the schedule CSV"`
}

func (c *ScheduleCmd) Run() error {
	sched, err := game.LoadScheduleFile(c.Path)
	if err != nil {
		return err
	}

	fmt.Printf("%-6s  %-12s %-6s %-14s  %-12s %-6s %-14s\n",
		"round", "vp1 cards", "value", "category", "vp2 cards", "value", "category")
	for i := 0; i < sched.Len(); i++ {
		plan := sched.Round(i)
		vp1, vp2 := plan.VP1Cards, plan.VP2Cards
		fmt.Printf("%-6d  %-12s %-6d %-14s  %-12s %-6d %-14s\n",
			i+1,
			fmt.Sprintf("%d,%d", vp1[0], vp1[1]),
			game.HandValue(vp1[0], vp1[1]),
			game.HandCategoryLabel(vp1[0], vp1[1]),
			fmt.Sprintf("%d,%d", vp2[0], vp2[1]),
			game.HandValue(vp2[0], vp2[1]),
			game.HandCategoryLabel(vp2[0], vp2[1]),
		)
	}
	fmt.Printf("%d rounds\n", sched.Len())
	return nil
}
