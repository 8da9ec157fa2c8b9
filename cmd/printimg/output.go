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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"golang.org/x/term"
	"google.golang.org/api/option"

	"seehuhn.de/go/printjob/config"
	"seehuhn.de/go/printjob/service"
)

// output is where the printed document goes.
type output struct {
	dest  service.DestinationFunc
	where string
	close func() error
}

// release closes the output, logging any error.
func (o *output) release(log *zap.Logger) {
	if err := o.close(); err != nil {
		log.Warn("cannot close output", zap.String("destination", o.where), zap.Error(err))
	}
}

func openOutput(ctx context.Context, cfg *config.OutputConfig, toStdout bool) (*output, error) {
	noop := func() error { return nil }
	switch {
	case toStdout:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("refusing to write PDF data to a terminal")
		}
		return &output{service.WriterDestination(os.Stdout), "stdout", noop}, nil

	case cfg.GCSBucket != "":
		var opts []option.ClientOption
		if cfg.GCSEndpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.GCSEndpoint))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to cloud storage: %w", err)
		}
		dest := service.GCSDestination(ctx, client.Bucket(cfg.GCSBucket), cfg.GCSPrefix)
		where := "gs://" + path.Join(cfg.GCSBucket, cfg.GCSPrefix)
		return &output{dest, where, client.Close}, nil

	case cfg.S3.Bucket != "":
		client, err := newS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		dest := service.S3Destination(ctx, client, cfg.S3.Bucket, cfg.S3.Prefix)
		where := "s3://" + path.Join(cfg.S3.Bucket, cfg.S3.Prefix)
		return &output{dest, where, noop}, nil

	default:
		return &output{service.FileDestination(cfg.Dir), cfg.Dir, noop}, nil
	}
}

func newS3Client(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return client, nil
}
