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

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the subset of *s3.Client used by S3Destination.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Destination returns a DestinationFunc which uploads each document to
// an S3 compatible object store.  The object key is the document name,
// prefixed by prefix.  The document is buffered in memory and uploaded
// when the destination is closed; an existing object with the same key
// makes the upload fail.  Aborted documents are not uploaded.
func S3Destination(ctx context.Context, client ObjectPutter, bucket, prefix string) DestinationFunc {
	return func(jobID string, info DocumentInfo) (io.WriteCloser, error) {
		return &s3Object{
			ctx:    ctx,
			client: client,
			in: &s3.PutObjectInput{
				Bucket:      aws.String(bucket),
				Key:         aws.String(path.Join(prefix, fileName(jobID, info))),
				ContentType: aws.String("application/pdf"),
				IfNoneMatch: aws.String("*"),
				Metadata: map[string]string{
					"job-id": jobID,
					"pages":  strconv.Itoa(info.PageCount),
				},
			},
		}, nil
	}
}

type s3Object struct {
	ctx    context.Context
	client ObjectPutter
	in     *s3.PutObjectInput

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (o *s3Object) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, errors.New("write to closed object")
	}
	return o.buf.Write(p)
}

// Close uploads the buffered document.
func (o *s3Object) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	o.in.Body = bytes.NewReader(o.buf.Bytes())
	o.in.ContentLength = aws.Int64(int64(o.buf.Len()))
	_, err := o.client.PutObject(o.ctx, o.in)
	return err
}

// Abort discards the buffered document without uploading it.
func (o *s3Object) Abort() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.buf.Reset()
	return nil
}
