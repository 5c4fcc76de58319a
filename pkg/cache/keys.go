package cache

// Keyer builds cache keys. Implementations must return equal keys for equal
// inputs and distinct keys otherwise.
type Keyer interface {
	// PlacementKey addresses the placement set computed on an alignment.
	PlacementKey(alignmentHash string, opts PlacementKeyOpts) string

	// ArtifactKey addresses a diagram rendered from a placement set.
	ArtifactKey(placementHash string, opts ArtifactKeyOpts) string
}

// PlacementKeyOpts are the inputs besides the alignment that change a
// placement set. RulesHash covers the rules and named segments, and in
// survey mode the surveyed drawing and block map.
type PlacementKeyOpts struct {
	Survey       bool    `json:"survey"`
	RulesHash    string  `json:"rules"`
	StartStation float64 `json:"start"`
	Decimals     int     `json:"decimals"`
	Strict       bool    `json:"strict"`
}

// ArtifactKeyOpts are the inputs besides the placements that change a
// rendered diagram.
type ArtifactKeyOpts struct {
	Kind       string `json:"kind"` // power or network
	ParamsHash string `json:"params"`
	Format     string `json:"format"` // svg, dot or dxf
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlacementKey returns "placement:<sha256>".
func (DefaultKeyer) PlacementKey(alignmentHash string, opts PlacementKeyOpts) string {
	return hashKey("placement", alignmentHash, opts)
}

// ArtifactKey returns "artifact:<kind>:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(placementHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Kind+":"+opts.Format, placementHash, opts.ParamsHash)
}

// ScopedKeyer prefixes every key of an inner Keyer. The CLI scopes keys by
// build version so entries written by another release are never read.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlacementKey prefixes the inner placement key.
func (k *ScopedKeyer) PlacementKey(alignmentHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(alignmentHash, opts)
}

// ArtifactKey prefixes the inner artifact key.
func (k *ScopedKeyer) ArtifactKey(placementHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(placementHash, opts)
}
