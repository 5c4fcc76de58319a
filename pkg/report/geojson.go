package report

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/layout"
)

// flattenTolerance is the chord deviation used for exported centerlines.
const flattenTolerance = 0.01

// WriteGeoJSON writes placements as Point features. When al is not nil the
// centerline is added as a LineString feature with kind "centerline".
// Coordinates are drawing units; no projection is applied.
func WriteGeoJSON(w io.Writer, ps []layout.Placement, al *alignment.Alignment) error {
	fc := geojson.NewFeatureCollection()
	if al != nil {
		f := geojson.NewFeature(al.Flatten(flattenTolerance))
		f.Properties["kind"] = "centerline"
		f.Properties["length"] = al.Length()
		fc.Append(f)
	}
	for _, p := range ps {
		f := geojson.NewFeature(orb.Point{p.X, p.Y})
		f.ID = p.Index
		f.Properties["kind"] = "device"
		f.Properties["index"] = p.Index
		f.Properties["category"] = p.Category
		f.Properties["label"] = p.Label
		f.Properties["block"] = p.Block
		f.Properties["chainage"] = p.Chainage
		f.Properties["station"] = p.Station
		f.Properties["side"] = p.Side.String()
		f.Properties["offset"] = p.Offset
		f.Properties["rotation"] = p.Rotation
		f.Properties["segment"] = p.Segment
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
