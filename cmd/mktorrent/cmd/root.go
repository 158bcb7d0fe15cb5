// Copyright © 2021 Rak Laptudirm <raklaptudirm@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the mktorrent command-line surface: flag
// parsing, config-profile resolution, and translating the result into a
// single build.Options value passed to the core pipeline.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mktorrent TARGET",
	Short: "Create BitTorrent v1, v2, and hybrid metainfo files",
	Long: "mktorrent creates .torrent metainfo files from a file or directory, " +
		"in BEP 3 (v1), BEP 52 (v2), or BEP 47 (v1+v2 hybrid) format.",
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.Flags()
	flags.SortFlags = false

	flags.StringArrayP("announce", "a", nil, "tracker announce URL (repeatable)")
	flags.StringP("comment", "c", "", "free-form comment")
	flags.BoolP("no-date", "d", false, "omit the creation date")
	flags.StringSliceP("exclude", "e", nil, "exclude glob pattern (comma-separable, repeatable)")
	flags.BoolP("force", "f", false, "overwrite the output file if it exists")
	flags.IntP("piece-length", "l", 0, "piece length as a power of two exponent (auto-selected if 0)")
	flags.StringP("name", "n", "", "torrent name (default: TARGET's base name)")
	flags.StringP("output", "o", "", "output file path (default: <name>.torrent)")
	flags.BoolP("private", "p", false, "mark the torrent private")
	flags.StringP("source", "s", "", "source tag, folded into the infohash")
	flags.IntP("threads", "t", 0, "hashing worker count (default: number of CPUs)")
	flags.BoolP("verbose", "v", false, "print detailed build information")
	flags.StringArrayP("web-seed", "w", nil, "web seed URL (repeatable)")
	flags.BoolP("cross-seed", "x", false, "inject unique entropy to force a distinct infohash")
	flags.Bool("v2", false, "create a BitTorrent v2 (BEP 52) torrent")
	flags.Bool("hybrid", false, "create a v1+v2 hybrid (BEP 47) torrent")
	flags.String("config", "", "path to the tracker-profile config file")
	flags.String("profile", "", "named tracker profile to apply from the config file")
}
