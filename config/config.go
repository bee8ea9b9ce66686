/*******************************************************************************
*
* Copyright 2016-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

// Package config loads the closed set of transaction options the core
// consults (spec.md §6) from a TOML file.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/holocm/rpmcore/fsm"
	"github.com/holocm/rpmcore/rpmerr"
)

// transaction is the on-disk shape of the [transaction] table.
type transaction struct {
	Test      bool `toml:"test"`
	JustDB    bool `toml:"justdb"`
	NoScripts bool `toml:"noscripts"`
	Commit    bool `toml:"commit"`
	Reverse   bool `toml:"reverse"`

	MapPath        bool `toml:"map_path"`
	MapMode        bool `toml:"map_mode"`
	MapUID         bool `toml:"map_uid"`
	MapGID         bool `toml:"map_gid"`
	FollowSymlinks bool `toml:"follow_symlinks"`
}

type fileFormat struct {
	Transaction transaction `toml:"transaction"`
}

// Options is the closed set of transaction flags from spec.md §6, already
// translated into the fsm.Options shape the core consumes.
type Options struct {
	Root string
	fsm.Options
}

// Load reads path as TOML and returns the Options it describes. A missing
// [transaction] table yields the all-false default (no test run, no
// CPIO_MAP_* overrides).
func Load(path string) (Options, error) {
	var ff fileFormat
	if _, err := toml.DecodeFile(path, &ff); err != nil {
		return Options{}, rpmerr.Wrap("Config.Load", rpmerr.ReadFailed, err).WithPath(path)
	}

	var flags fsm.MapFlag
	t := ff.Transaction
	if t.MapPath {
		flags |= fsm.MapPath
	}
	if t.MapMode {
		flags |= fsm.MapMode
	}
	if t.MapUID {
		flags |= fsm.MapUID
	}
	if t.MapGID {
		flags |= fsm.MapGID
	}
	if t.FollowSymlinks {
		flags |= fsm.FollowSymlinks
	}

	return Options{
		Options: fsm.Options{
			Test:      t.Test,
			JustDB:    t.JustDB,
			NoScripts: t.NoScripts,
			Commit:    t.Commit,
			Reverse:   t.Reverse,
			MapFlags:  flags,
		},
	}, nil
}
