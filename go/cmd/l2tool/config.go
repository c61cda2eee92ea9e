// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"github.com/Fantom-foundation/tosca-l2/go/l2"
	"github.com/Fantom-foundation/tosca-l2/go/processor/rollup"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

var configFlag = &cli.StringFlag{
	Name:      "config",
	Usage:     "YAML file providing default values for the rollup flags",
	TakesFile: true,
}

type specFlagType struct {
	*altsrc.StringFlag
}

var specFlag = &specFlagType{
	altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "spec",
		Usage: "protocol rules of the rollup",
		Value: l2.Latest.String(),
	}),
}

// Fetch builds the rollup configuration selected by the command line, or
// by the configuration file for flags not given on the command line.
func (f *specFlagType) Fetch(context *cli.Context) (rollup.Config, error) {
	config := rollup.DefaultConfig()
	if err := config.Spec.UnmarshalText([]byte(context.String(f.Name))); err != nil {
		return rollup.Config{}, err
	}
	return config, config.Validate()
}

// loadConfigFile fills the file backed flags of a command from the file
// named by the config flag.
func loadConfigFile(flags []cli.Flag) cli.BeforeFunc {
	return altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc(configFlag.Name))
}
