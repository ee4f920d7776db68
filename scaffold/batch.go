package scaffold

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GenerateAll generates every request with at most limit calls in flight
// (unbounded when limit <= 0). Each request is an independent call with its
// own retry budget. The first failure cancels the remaining calls and is
// returned; on success the meshes are in request order.
func (c *Client) GenerateAll(ctx context.Context, reqs []GenerateRequest, limit int) ([]*Mesh, error) {
	meshes := make([]*Mesh, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, req := range reqs {
		g.Go(func() error {
			mesh, err := c.Generate(gctx, req)
			if err != nil {
				return err
			}
			meshes[i] = mesh
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}
