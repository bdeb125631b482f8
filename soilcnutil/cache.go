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

package soilcnutil

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/soilcn"
	"github.com/spatialmodel/soilcn/internal/hash"
)

// FieldCache runs field simulations through an in-memory cache so that
// fields with identical inputs are only simulated once. All fields run
// through a cache must use the same engines and init functions, because
// those are not part of the cache key.
type FieldCache struct {
	c *requestcache.Cache
}

// NewFieldCache returns a cache that simulates up to nprocs fields at
// once (one per CPU if nprocs < 1) and holds the results of up to size
// fields.
func NewFieldCache(nprocs, size int) *FieldCache {
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(-1)
	}
	return &FieldCache{
		c: requestcache.NewCache(simulateCopy, nprocs,
			requestcache.Deduplicate(), requestcache.Memory(size)),
	}
}

// simulateCopy simulates a copy of the requested field and returns
// the simulated year records.
func simulateCopy(ctx context.Context, request interface{}) (interface{}, error) {
	f := request.(*soilcn.Field)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := *f
	cp.Years = make([]*soilcn.YearRecord, len(f.Years))
	for i, r := range f.Years {
		if r == nil {
			continue
		}
		rr := *r
		cp.Years[i] = &rr
	}
	if err := cp.Simulate(); err != nil {
		return nil, err
	}
	o := make([]soilcn.YearRecord, len(cp.Years))
	for i, r := range cp.Years {
		o[i] = *r
	}
	return o, nil
}

// key returns the cache key for the inputs of f.
func key(f *soilcn.Field) string {
	return hash.Hash(f.Defaults, f.Climate, f.Years)
}

// Simulate simulates f, or copies the results of a previous simulation
// of a field with the same inputs.
func (c *FieldCache) Simulate(ctx context.Context, f *soilcn.Field) error {
	if len(f.Years) == 0 {
		return fmt.Errorf("soilcn: field %s has no years to simulate", f.Name)
	}
	req := c.c.NewRequest(ctx, f, key(f))
	result, err := req.Result()
	if err != nil {
		return err
	}
	return f.Restore(result.([]soilcn.YearRecord))
}

// RunFields simulates the given fields through the cache. If ctx is
// done before all fields finish, ctx.Err() is returned.
func (c *FieldCache) RunFields(ctx context.Context, fields ...*soilcn.Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errs := make(chan error, len(fields))
	for _, f := range fields {
		go func(f *soilcn.Field) {
			errs <- c.Simulate(ctx, f)
		}(f)
	}
	for range fields {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Requests returns the number of requests received by the cache and
// the number that were simulated.
func (c *FieldCache) Requests() (received, simulated int) {
	r := c.c.Requests()
	return r[0], r[len(r)-1]
}
