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
	"context"
	"io"
	"path"
	"strconv"

	"cloud.google.com/go/storage"
)

// GCSDestination returns a DestinationFunc which uploads each document to
// a Google Cloud Storage bucket.  The object name is the document name,
// prefixed by prefix.  Existing objects are not overwritten; the upload
// fails when Close is called.  Aborted uploads leave no object behind.
//
// The upload is bound to ctx.  Cancelling ctx aborts uploads in progress.
func GCSDestination(ctx context.Context, bucket *storage.BucketHandle, prefix string) DestinationFunc {
	return func(jobID string, info DocumentInfo) (io.WriteCloser, error) {
		name := path.Join(prefix, fileName(jobID, info))
		obj := bucket.Object(name).If(storage.Conditions{DoesNotExist: true})

		objCtx, cancel := context.WithCancel(ctx)
		w := obj.NewWriter(objCtx)
		w.ContentType = "application/pdf"
		w.Metadata = map[string]string{
			"job-id": jobID,
			"pages":  strconv.Itoa(info.PageCount),
		}
		return &gcsObject{Writer: w, cancel: cancel}, nil
	}
}

type gcsObject struct {
	*storage.Writer
	cancel context.CancelFunc
}

// Close finalizes the upload.
func (o *gcsObject) Close() error {
	err := o.Writer.Close()
	o.cancel()
	return err
}

// Abort stops the upload.  Cancelling the context before Close makes the
// storage client discard the object.
func (o *gcsObject) Abort() error {
	o.cancel()
	o.Writer.Close()
	return nil
}
