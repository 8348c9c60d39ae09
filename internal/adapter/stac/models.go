package stac

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb/geojson"
	gostac "github.com/planetlabs/go-stac"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// searchRequest is the body of POST /search.
type searchRequest struct {
	Collections []string                  `json:"collections"`
	Intersects  *geojson.Geometry         `json:"intersects"`
	Datetime    string                    `json:"datetime"`
	Limit       int                       `json:"limit"`
	Query       map[string]map[string]any `json:"query,omitempty"`
}

// searchResponse is a STAC ItemCollection page.
type searchResponse struct {
	Type     string         `json:"type"`
	Features []*gostac.Item `json:"features"`
	Links    []searchLink   `json:"links"`
}

// searchLink keeps the pagination fields go-stac's Link does not model.
type searchLink struct {
	Rel    string          `json:"rel"`
	Href   string          `json:"href"`
	Method string          `json:"method,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
	Merge  bool            `json:"merge,omitempty"`
}

func (r *searchResponse) next() *searchLink {
	for i := range r.Links {
		if r.Links[i].Rel == "next" {
			return &r.Links[i]
		}
	}
	return nil
}

// assetBands maps STAC asset keys to Landsat band names. Both the
// Collection 2 band names and the common names used by Planetary Computer
// are accepted.
var assetBands = map[string]raster.BandName{
	"sr_b2": domain.BandBlue, "blue": domain.BandBlue,
	"sr_b3": domain.BandGreen, "green": domain.BandGreen,
	"sr_b4": domain.BandRed, "red": domain.BandRed,
	"sr_b5": domain.BandNIR, "nir08": domain.BandNIR,
	"sr_b6": domain.BandSWIR1, "swir16": domain.BandSWIR1,
	"sr_b7": domain.BandSWIR2, "swir22": domain.BandSWIR2,
	"st_b10": domain.BandThermal, "lwir11": domain.BandThermal,
	"qa_pixel": domain.BandQA,
}

// bandAssets returns the hrefs of the item's band assets keyed by band.
func bandAssets(item *gostac.Item) map[raster.BandName]string {
	out := make(map[raster.BandName]string, len(assetBands))
	for key, asset := range item.Assets {
		if asset == nil || asset.Href == "" {
			continue
		}
		if name, ok := assetBands[strings.ToLower(key)]; ok {
			out[name] = asset.Href
		}
	}
	return out
}
