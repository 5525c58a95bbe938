package main

import (
	"fmt"

	"github.com/nesalia/fresh"
)

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(deps *Dependencies) error {
	if c.URL == "" {
		if err := deps.Cache.Clear(deps.Ctx); err != nil {
			return err
		}
		if deps.Manifests != nil {
			if err := deps.Manifests.Clear(deps.Ctx); err != nil {
				return err
			}
		}
		fmt.Fprintln(deps.Stdout, "Cache cleared")
		return nil
	}

	ref, err := fresh.Canonicalize(c.URL)
	if err != nil {
		return err
	}
	if err := deps.Cache.Invalidate(deps.Ctx, ref); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Removed %s from cache\n", ref)
	return nil
}
