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

package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/raklaptudirm/mktorrent/internal/build"
	"github.com/raklaptudirm/mktorrent/internal/config"
	"github.com/raklaptudirm/mktorrent/internal/model"
)

// ErrOutputExists is returned when the destination file already exists
// and -f was not given.
var ErrOutputExists = errors.New("cmd: output file exists")

func runCreate(cmd *cobra.Command, args []string) error {
	target := args[0]
	flags := cmd.Flags()

	announces, _ := flags.GetStringArray("announce")
	comment, _ := flags.GetString("comment")
	noDate, _ := flags.GetBool("no-date")
	excludes, _ := flags.GetStringSlice("exclude")
	force, _ := flags.GetBool("force")
	pieceLenExp, _ := flags.GetInt("piece-length")
	name, _ := flags.GetString("name")
	output, _ := flags.GetString("output")
	private, _ := flags.GetBool("private")
	source, _ := flags.GetString("source")
	threads, _ := flags.GetInt("threads")
	verbose, _ := flags.GetBool("verbose")
	webSeeds, _ := flags.GetStringArray("web-seed")
	crossSeed, _ := flags.GetBool("cross-seed")
	wantV2, _ := flags.GetBool("v2")
	wantHybrid, _ := flags.GetBool("hybrid")
	configPath, _ := flags.GetString("config")
	profileName, _ := flags.GetString("profile")

	if wantV2 && wantHybrid {
		return fmt.Errorf("cmd: --v2 and --hybrid are mutually exclusive")
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	mode := model.ModeV1
	switch {
	case wantV2:
		mode = model.ModeV2
	case wantHybrid:
		mode = model.ModeHybrid
	}

	if profileName != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		p, err := cfg.Profile(profileName)
		if err != nil {
			return err
		}
		if len(announces) == 0 {
			announces = p.Announces
		}
		if pieceLenExp == 0 {
			pieceLenExp = p.PieceLenExp
		}
		if source == "" {
			source = p.Source
		}
		if !private {
			private = p.Private
		}
	}

	if name == "" {
		name = filepath.Base(filepath.Clean(target))
	}
	if output == "" {
		output = name + ".torrent"
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrOutputExists, output)
	}

	var creationDate *int64
	if !noDate {
		epoch := time.Now().Unix()
		if env := os.Getenv("SOURCE_DATE_EPOCH"); env != "" {
			if parsed, err := strconv.ParseInt(env, 10, 64); err == nil {
				epoch = parsed
			}
		}
		creationDate = &epoch
	}

	var salt func() []byte
	if crossSeed {
		salt = func() []byte {
			b := make([]byte, 8)
			_, _ = rand.Read(b)
			return b
		}
	}

	var bar *progressbar.ProgressBar
	if !verbose {
		bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetDescription("hashing"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	opts := build.Options{
		Target:        target,
		Excludes:      excludes,
		Name:          name,
		Mode:          mode,
		PieceLenExp:   pieceLenExp,
		Threads:       threads,
		Private:       private,
		Source:        source,
		CrossSeedSalt: salt,
		Announces:     announces,
		WebSeeds:      webSeeds,
		Comment:       comment,
		CreatedBy:     "mktorrent",
		CreationDate:  creationDate,
		Progress: func(done, total int64) {
			if bar != nil {
				bar.ChangeMax64(total)
				_ = bar.Set64(done)
			}
		},
	}

	result, err := build.Run(context.Background(), opts)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := os.WriteFile(output, result.Bytes, 0o644); err != nil {
		return fmt.Errorf("cmd: write %s: %w", output, err)
	}

	if verbose {
		printSummary(name, output, mode, opts, result)
	}

	return nil
}

func printSummary(name, output string, mode model.Mode, opts build.Options, result *build.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s\n", green("created:"), output)
	fmt.Printf("  name:   %s\n", name)
	fmt.Printf("  mode:   %s\n", mode)
	fmt.Printf("  size:   %s\n", humanize.Bytes(uint64(len(result.Bytes))))
	if result.InfoHashV1 != nil {
		fmt.Printf("  infohash (v1): %x\n", result.InfoHashV1)
	}
	if result.InfoHashV2 != nil {
		fmt.Printf("  infohash (v2): %x\n", result.InfoHashV2)
	}
	if len(opts.Announces) > 0 {
		fmt.Printf("  trackers: %v\n", opts.Announces)
	}
}
