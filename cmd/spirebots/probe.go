package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spirebridge/spirebots/internal/config"
	"github.com/spirebridge/spirebots/sdk"
)

type ProbeCmd struct {
	Config string `default:"spirebots.hcl" help:"Path to HCL configuration file"`
	Host   string `help:"Bridge host (overrides config)"`
	Port   int    `help:"Bridge port (overrides config)"`
	JSON   bool   `help:"Print the raw state document instead of a summary"`
}

func (c *ProbeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.Host != "" {
		cfg.Bridge.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Bridge.Port = c.Port
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	client, err := sdk.New(cfg.ClientConfig())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Bridge.Host, cfg.Bridge.Port)
	if !client.Connect() {
		return fmt.Errorf("bridge unreachable at %s: %w", addr, client.LastError())
	}

	state := client.GetState()

	if c.JSON {
		if state == nil {
			return fmt.Errorf("no game state available yet")
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, state.Raw(), "", "  "); err != nil {
			return err
		}
		fmt.Println(buf.String())
		return nil
	}

	fmt.Printf("Bridge:   %s\n", addr)
	fmt.Printf("Status:   %s\n", client.Status())

	if state == nil {
		fmt.Println("State:    none (start the game with the mod enabled)")
		return nil
	}

	fmt.Printf("Updated:  %.3f\n", state.Timestamp())
	if state.InGame() {
		screen := state.ScreenType()
		if screen == "" || screen == sdk.ScreenNone {
			screen = "in game"
		}
		fmt.Printf("Screen:   %s\n", screen)
		if floor, ok := state.Floor(); ok {
			if act, ok := state.Act(); ok {
				fmt.Printf("Floor:    %d (act %d)\n", floor, act)
			} else {
				fmt.Printf("Floor:    %d\n", floor)
			}
		}
		if hp, ok := state.CurrentHP(); ok {
			if maxHP, ok := state.MaxHP(); ok {
				fmt.Printf("HP:       %d/%d\n", hp, maxHP)
			}
		}
		if gold, ok := state.Gold(); ok {
			fmt.Printf("Gold:     %d\n", gold)
		}
	} else {
		fmt.Println("Screen:   main menu")
	}

	if cmds := state.AvailableCommands(); len(cmds) > 0 {
		fmt.Printf("Commands: %s\n", strings.Join(cmds, ", "))
	}

	return nil
}
