// seehuhn.de/go/printjob - drive a page renderer from a print service
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/service"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "stderr", cfg.Log.Output)
		assert.Equal(t, ".", cfg.Output.Dir)
		assert.False(t, cfg.Output.Optimize)
		assert.Equal(t, "1.7", cfg.PDF.Version)
		assert.Equal(t, "na_letter", cfg.Media.Default)
		assert.Equal(t, 30*time.Second, cfg.Service.CallbackTimeout)

		a, err := cfg.Attributes()
		require.NoError(t, err)
		w, h := a.PageSize()
		assert.Equal(t, 612, w)
		assert.Equal(t, 792, h)
	})

	t.Run("reads a toml file", func(t *testing.T) {
		path := writeConfig(t, "printjob.toml", `
[log]
level = "debug"
format = "json"

[output]
dir = "/tmp/out"
optimize = true
gcs_bucket = "prints"
gcs_prefix = "jobs"

[pdf]
version = "2.0"
language = "de-DE"

[media]
default = "iso_a4"
landscape = true
color = "monochrome"

[margins]
left = 500
top = 500
right = 500
bottom = 500

[service]
callback_timeout = "5s"
pages = "1-2"
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "/tmp/out", cfg.Output.Dir)
		assert.True(t, cfg.Output.Optimize)
		assert.Equal(t, "prints", cfg.Output.GCSBucket)
		assert.Equal(t, "jobs", cfg.Output.GCSPrefix)
		assert.Equal(t, attr.Margins{Left: 500, Top: 500, Right: 500, Bottom: 500}, cfg.Margins)
		assert.Equal(t, 5*time.Second, cfg.Service.CallbackTimeout)

		a, err := cfg.Attributes()
		require.NoError(t, err)
		assert.Equal(t, attr.ISOA4, a.Media)
		assert.True(t, a.Landscape)
		assert.Equal(t, attr.ColorModeMonochrome, a.Color)

		opt, err := cfg.DocumentOptions()
		require.NoError(t, err)
		assert.Equal(t, pdf.V2_0, opt.Version)
		assert.Equal(t, language.MustParse("de-DE"), opt.Language)

		sopt, err := cfg.SpoolerOptions()
		require.NoError(t, err)
		assert.Equal(t, []service.PageRange{{Start: 0, End: 1}}, sopt.PageRanges)
		assert.True(t, sopt.Optimize)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "printjob.yaml", "media:\n  default: iso_a5\n")
		t.Setenv("PRINTJOB_MEDIA_DEFAULT", "na_legal")
		t.Setenv("PRINTJOB_OUTPUT_DIR", "spool")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "na_legal", cfg.Media.Default)
		assert.Equal(t, "spool", cfg.Output.Dir)
	})

	t.Run("s3 output", func(t *testing.T) {
		path := writeConfig(t, "printjob.yaml", `
output:
  s3:
    bucket: prints
    endpoint: http://localhost:9000
    path_style: true
`)
		t.Setenv("PRINTJOB_OUTPUT_S3_PREFIX", "spool")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, S3Config{
			Bucket:    "prints",
			Prefix:    "spool",
			Endpoint:  "http://localhost:9000",
			Region:    "us-east-1",
			PathStyle: true,
		}, cfg.Output.S3)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown media":    "[media]\ndefault = \"tabloid\"\n",
		"bad color":        "[media]\ncolor = \"sepia\"\n",
		"bad version":      "[pdf]\nversion = \"3.1\"\n",
		"bad language":     "[pdf]\nlanguage = \"not a tag!\"\n",
		"bad level":        "[log]\nlevel = \"loud\"\n",
		"bad pages":        "[service]\npages = \"5-1\"\n",
		"huge margins":     "[margins]\nleft = 5000\nright = 5000\n",
		"negative margin":  "[margins]\ntop = -1\n",
		"prefix no bucket": "[output]\ngcs_prefix = \"jobs\"\n",
		"two buckets":      "[output]\ngcs_bucket = \"a\"\n[output.s3]\nbucket = \"b\"\n",
		"half a key":       "[output.s3]\nbucket = \"b\"\naccess_key = \"k\"\n",
		"bad endpoint":     "[output.s3]\nbucket = \"b\"\nendpoint = \"not a url\"\n",
		"negative timeout": "[service]\ncallback_timeout = \"-1s\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, "printjob.toml", content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
