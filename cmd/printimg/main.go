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

// Printimg prints image files into a PDF document, one image per page.
//
// Usage:
//
//	printimg [options] image...
//
// The document is written into the output directory configured in
// printjob.toml (default: the current directory), or to standard output
// if -stdout is given.  If output.gcs_bucket is configured, the document
// is uploaded to that Google Cloud Storage bucket instead, and likewise
// for output.s3.bucket and an S3 compatible object store.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"seehuhn.de/go/printjob"
	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/config"
	"seehuhn.de/go/printjob/internal/logger"
	"seehuhn.de/go/printjob/record"
	"seehuhn.de/go/printjob/service"
)

var (
	configFile = flag.String("config", "", "configuration file")
	outDir     = flag.String("o", "", "output directory (overrides output.dir)")
	toStdout   = flag.Bool("stdout", false, "write the PDF to standard output")
	title      = flag.String("title", "", "document title (default: name of the first image)")
	media      = flag.String("media", "", "media size, e.g. iso_a4 or na_letter")
	landscape  = flag.Bool("landscape", false, "use landscape orientation")
	captions   = flag.Bool("captions", false, "print the file name below each image")
	optimize   = flag.Bool("optimize", false, "optimize the PDF file")
	verbose    = flag.Bool("v", false, "log debug messages")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	err := run(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "printimg:", err)
		os.Exit(1)
	}
}

func run(files []string) error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *media != "" {
		cfg.Media.Default = *media
	}
	if *landscape {
		cfg.Media.Landscape = true
	}
	if *optimize {
		cfg.Output.Optimize = true
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	attrs, err := cfg.Attributes()
	if err != nil {
		return err
	}
	docOpt, err := cfg.DocumentOptions()
	if err != nil {
		return err
	}
	sopt, err := cfg.SpoolerOptions()
	if err != nil {
		return err
	}
	sopt.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := openOutput(ctx, &cfg.Output, *toStdout)
	if err != nil {
		return err
	}
	defer out.release(log)
	sopt.Destination = out.dest

	images, err := loadImages(ctx, files)
	if err != nil {
		return err
	}
	log.Debug("images loaded", zap.Int("count", len(images)))

	name := *title
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(files[0]), filepath.Ext(files[0]))
	}
	rec := record.New()
	rec.SetDocumentName(name)
	rec.SetLandscape(attrs.Landscape)
	for _, img := range images {
		err := addPage(rec, attrs, img, *captions)
		if err != nil {
			return err
		}
	}

	spooler := service.NewSpooler(sopt)
	defer spooler.Close()

	job := rec.NewJob(&printjob.Options{
		Attributes: attrs,
		Document:   docOpt,
		Logger:     log,
	})
	err = job.Print(ctx, spooler)
	if err != nil {
		return err
	}

	res := job.Result()
	log.Info("printed",
		zap.String("name", res.Name),
		zap.Int("pages", res.Pages),
		zap.String("destination", out.where))
	return nil
}

// captionHeight is the space reserved below an image for its caption, in
// PDF points.
const captionHeight = 24

func addPage(rec *record.Recorder, a *attr.Attributes, img *namedImage, caption bool) error {
	rec.NewPage()

	area := a.ContentRect()
	if caption {
		area.Max.Y -= captionHeight
	}
	dst := record.FitImage(img.Bounds().Size(), area)
	if dst.Empty() {
		return fmt.Errorf("%s: no space for the image", img.name)
	}
	err := rec.DrawBitmap(img.Image, dst)
	if err != nil {
		return err
	}
	if !caption {
		return nil
	}

	y := area.Max.Y + 4
	err = rec.Line(image.Pt(area.Min.X, y), image.Pt(area.Max.X, y), 0.5)
	if err != nil {
		return err
	}
	return rec.DrawText(filepath.Base(img.name), image.Pt(area.Min.X, y+16))
}
