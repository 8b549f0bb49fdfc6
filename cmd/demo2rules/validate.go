package main

import (
	"fmt"
	"os"

	"github.com/gwillem/demo2rules/pkg/rules"
)

type ValidateCommand struct {
	Args struct {
		Files []string `positional-arg-name:"file" required:"1"`
	} `positional-args:"yes"`
}

func (c *ValidateCommand) Execute(args []string) error {
	logger := newLogger()
	var failed int
	for _, path := range c.Args.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		report, err := rules.Validate(string(data))
		if err != nil {
			logger.Error("invalid program", "path", path, "err", err)
			failed++
			continue
		}
		fmt.Printf("%s %s: %d stages, done at stage %d\n",
			successStyle.Render("✓"), path, report.Stages, report.Terminal)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d programs invalid", failed, len(c.Args.Files))
	}
	return nil
}
