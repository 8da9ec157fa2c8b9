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

// Package config loads the settings of the command line tools from a
// configuration file and from PRINTJOB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/document"
	"seehuhn.de/go/printjob/internal/logger"
	"seehuhn.de/go/printjob/service"
)

// Config holds all settings.
type Config struct {
	Log     logger.Config
	Output  OutputConfig
	PDF     PDFConfig
	Media   MediaConfig
	Margins attr.Margins // in mils
	Service ServiceConfig
}

// OutputConfig selects where written documents go.  If GCSBucket or
// S3.Bucket is set, documents are uploaded to that bucket instead of being
// written to Dir.
type OutputConfig struct {
	Dir      string `validate:"required"`
	Optimize bool

	GCSBucket   string
	GCSPrefix   string
	GCSEndpoint string `validate:"omitempty,url"` // for tests and emulators

	S3 S3Config
}

// S3Config describes an S3 compatible object store.  If the keys are
// empty, the default AWS credential chain is used.
type S3Config struct {
	Bucket    string
	Prefix    string
	Endpoint  string `validate:"omitempty,url"`
	Region    string
	PathStyle bool
	AccessKey string `validate:"required_with=SecretKey"`
	SecretKey string `validate:"required_with=AccessKey"`
}

// PDFConfig controls the generated PDF files.
type PDFConfig struct {
	Version  string `validate:"required"` // e.g. "1.7"
	Language string // BCP 47 tag, may be empty
	Producer string `validate:"required"`
}

// MediaConfig selects the paper.
type MediaConfig struct {
	Default   string // media ID, e.g. "na_letter" or "iso_a4"
	Landscape bool
	Color     string // color, monochrome
}

// ServiceConfig configures the in-process print service.
type ServiceConfig struct {
	CallbackTimeout time.Duration `validate:"gte=0"`
	Pages           string        // page ranges, e.g. "1-3,5"
}

// Load reads the configuration.  If path is empty, a file named
// "printjob.toml" (or any other format known to viper) is searched for in
// the current directory and in $HOME/.config/printjob; a missing file is
// not an error.  Environment variables override the file, with keys like
// PRINTJOB_OUTPUT_DIR for "output.dir".
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("printjob")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/printjob")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("PRINTJOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Output: OutputConfig{
			Dir:      v.GetString("output.dir"),
			Optimize: v.GetBool("output.optimize"),

			GCSBucket:   v.GetString("output.gcs_bucket"),
			GCSPrefix:   v.GetString("output.gcs_prefix"),
			GCSEndpoint: v.GetString("output.gcs_endpoint"),

			S3: S3Config{
				Bucket:    v.GetString("output.s3.bucket"),
				Prefix:    v.GetString("output.s3.prefix"),
				Endpoint:  v.GetString("output.s3.endpoint"),
				Region:    v.GetString("output.s3.region"),
				PathStyle: v.GetBool("output.s3.path_style"),
				AccessKey: v.GetString("output.s3.access_key"),
				SecretKey: v.GetString("output.s3.secret_key"),
			},
		},
		PDF: PDFConfig{
			Version:  v.GetString("pdf.version"),
			Language: v.GetString("pdf.language"),
			Producer: v.GetString("pdf.producer"),
		},
		Media: MediaConfig{
			Default:   v.GetString("media.default"),
			Landscape: v.GetBool("media.landscape"),
			Color:     v.GetString("media.color"),
		},
		Margins: attr.Margins{
			Left:   v.GetInt("margins.left"),
			Top:    v.GetInt("margins.top"),
			Right:  v.GetInt("margins.right"),
			Bottom: v.GetInt("margins.bottom"),
		},
		Service: ServiceConfig{
			CallbackTimeout: v.GetDuration("service.callback_timeout"),
			Pages:           v.GetString("service.pages"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := logger.DefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = def.Output
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.PDF.Version == "" {
		cfg.PDF.Version = "1.7"
	}
	if cfg.PDF.Producer == "" {
		cfg.PDF.Producer = "seehuhn.de/go/printjob"
	}
	if cfg.Media.Default == "" {
		cfg.Media.Default = attr.NALetter.ID
	}
	if cfg.Media.Color == "" {
		cfg.Media.Color = attr.ColorModeColor.String()
	}
	if cfg.Service.CallbackTimeout == 0 {
		cfg.Service.CallbackTimeout = 30 * time.Second
	}
	if cfg.Output.S3.Bucket != "" && cfg.Output.S3.Region == "" {
		cfg.Output.S3.Region = "us-east-1"
	}
}

var validate = validator.New()

func (cfg *Config) validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if _, err := cfg.Attributes(); err != nil {
		return err
	}
	if _, err := cfg.DocumentOptions(); err != nil {
		return err
	}
	if _, err := service.ParsePageRanges(cfg.Service.Pages); err != nil {
		return fmt.Errorf("service.pages: %w", err)
	}
	if cfg.Output.GCSBucket == "" && (cfg.Output.GCSPrefix != "" || cfg.Output.GCSEndpoint != "") {
		return errors.New("output.gcs_prefix and output.gcs_endpoint need output.gcs_bucket")
	}
	if cfg.Output.GCSBucket != "" && cfg.Output.S3.Bucket != "" {
		return errors.New("output.gcs_bucket and output.s3.bucket are mutually exclusive")
	}
	return nil
}

// Attributes returns the print attributes described by the configuration.
func (cfg *Config) Attributes() (*attr.Attributes, error) {
	media, ok := attr.LookupMedia(cfg.Media.Default)
	if !ok {
		return nil, fmt.Errorf("media.default: unknown media size %q", cfg.Media.Default)
	}

	a := attr.Default()
	a.Media = media
	a.Landscape = cfg.Media.Landscape
	a.Margins = cfg.Margins
	switch strings.ToLower(cfg.Media.Color) {
	case "color", "":
		a.Color = attr.ColorModeColor
	case "monochrome", "mono", "gray":
		a.Color = attr.ColorModeMonochrome
	default:
		return nil, fmt.Errorf("media.color: unknown color mode %q", cfg.Media.Color)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// DocumentOptions returns the settings for generated PDF files.
func (cfg *Config) DocumentOptions() (*document.Options, error) {
	ver, err := pdf.ParseVersion(cfg.PDF.Version)
	if err != nil {
		return nil, fmt.Errorf("pdf.version %q: %w", cfg.PDF.Version, err)
	}
	opt := &document.Options{
		Version:  ver,
		Producer: cfg.PDF.Producer,
	}
	if cfg.PDF.Language != "" {
		tag, err := language.Parse(cfg.PDF.Language)
		if err != nil {
			return nil, fmt.Errorf("pdf.language: %w", err)
		}
		opt.Language = tag
	}
	return opt, nil
}

// SpoolerOptions returns the print service settings.  The destination and
// logger are left for the caller to fill in.
func (cfg *Config) SpoolerOptions() (*service.Options, error) {
	pages, err := service.ParsePageRanges(cfg.Service.Pages)
	if err != nil {
		return nil, err
	}
	return &service.Options{
		PageRanges:      pages,
		CallbackTimeout: cfg.Service.CallbackTimeout,
		Optimize:        cfg.Output.Optimize,
	}, nil
}
