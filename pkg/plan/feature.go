package plan

// HasFeature reports whether tier t enables f. Flags are binary; an
// unknown flag is never enabled.
func (c *Catalog) HasFeature(t Tier, f Feature) bool {
	return c.resolve(t).Has(f)
}
