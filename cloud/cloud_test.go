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
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/out.xlsx": true,
		"s3://bucket/out.xlsx": true,
		"file://test/out.xlsx": true,
		"out.xlsx":             false,
		"/tmp/gs://x":          false,
	} {
		if IsBlob(path) != want {
			t.Errorf("%s: want %v", path, want)
		}
	}
}

func TestSplitURL(t *testing.T) {
	bucket, key, err := SplitURL("s3://farm-results/2018/north.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "s3://farm-results" || key != "2018/north.xlsx" {
		t.Errorf("have %s and %s", bucket, key)
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("want an error for an unsupported provider")
	}
}

func TestUpload(t *testing.T) {
	const bucketDir = "testbucket"
	if err := os.Mkdir(bucketDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)

	local := filepath.Join(bucketDir, "local.txt")
	if err := ioutil.WriteFile(local, []byte("soil carbon"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := Upload(ctx, local, "file://"+bucketDir+"/results.txt", nil); err != nil {
		t.Fatal(err)
	}
	b, err := ReadBlob(ctx, "file://"+bucketDir+"/results.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "soil carbon" {
		t.Errorf("have %q", b)
	}

	if err := Upload(ctx, filepath.Join(bucketDir, "missing.txt"), "file://"+bucketDir+"/x.txt", nil); err == nil {
		t.Error("want an error for a missing local file")
	}
}
