package commands

import (
	"path/filepath"

	"git.home.luguber.info/inful/docshell/internal/config"
	"git.home.luguber.info/inful/docshell/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration files"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	w := root.out()
	printf(w, "Writing configuration to %s\n", filepath.Join(root.ConfigDir, config.FileName))
	if err := config.Init(root.ConfigDir, i.Force); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "initialization failed").Build()
	}
	printf(w, "initialized successfully\n")
	return nil
}
