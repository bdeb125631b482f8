/*
Copyright © 2018 the soilcn authors.
This file is part of soilcn.

soilcn is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

soilcn is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with soilcn.  If not, see <http://www.gnu.org/licenses/>.
*/

package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/cenkalti/backoff"
	"gocloud.dev/blob"
)

// ReadBlob reads the blob at path, which must be in the format
// 'provider://bucket/key'.
func ReadBlob(ctx context.Context, path string) ([]byte, error) {
	bucketName, key, err := SplitURL(path)
	if err != nil {
		return nil, err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	return readBlob(ctx, bucket, key)
}

// readBlob reads the given blob from the given bucket.
func readBlob(ctx context.Context, bucket *blob.Bucket, key string) ([]byte, error) {
	var b bytes.Buffer
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	defer r.Close()
	_, err = io.Copy(&b, r)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	return b.Bytes(), nil
}

// writeBlob writes the given data to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, data []byte) error {
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

// MaxRetries is the number of times an upload is retried before
// giving up.
var MaxRetries uint64 = 5

// Upload copies the local file at localPath to the blob storage
// location dest ('provider://bucket/key'), retrying with exponential
// backoff if the write fails. notify, if not nil, is called before each
// retry.
func Upload(ctx context.Context, localPath, dest string, notify func(error, time.Duration)) error {
	data, err := ioutil.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("cloud: opening file '%s' for upload: %v", localPath, err)
	}
	bucketName, key, err := SplitURL(dest)
	if err != nil {
		return err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("cloud: opening bucket to upload file '%s': %v", dest, err)
	}
	if notify == nil {
		notify = func(error, time.Duration) {}
	}
	return backoff.RetryNotify(
		func() error {
			return writeBlob(ctx, bucket, key, data)
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxRetries), ctx),
		notify,
	)
}
