package main

import (
	"fmt"

	"github.com/gwillem/demo2rules/pkg/config"
)

type InitCommand struct {
	Force bool `long:"force" short:"f" description:"Overwrite an existing config file"`
}

func (c *InitCommand) Execute(args []string) error {
	if config.Exists(opts.Config) && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", opts.Config)
	}
	if err := config.Default().SaveTo(opts.Config); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Wrote " + opts.Config))
	return nil
}
