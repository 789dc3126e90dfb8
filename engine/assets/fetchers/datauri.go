package fetchers

import (
	"context"
	"errors"

	"github.com/vincent-petithory/dataurl"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

var errNotDataURI = errors.New("missing data: scheme")

// DataURI decodes assets embedded in the key itself. No I/O happens.
type DataURI struct {
	metrics *core.Metrics
}

func NewDataURI(metrics *core.Metrics) *DataURI {
	return &DataURI{metrics: metrics}
}

func (d *DataURI) Fetch(_ context.Context, keys []assets.AssetKey) (*assets.RawAssetStore, error) {
	out := assets.NewRawAssetStore()
	for _, k := range keys {
		_, data, err := ParseDataURI(string(k))
		if err != nil {
			return nil, &core.DataURIError{Key: string(k), Err: err}
		}
		d.metrics.FetchCompleted(string(k), len(data))
		out.Insert(k, data)
	}
	return out, nil
}

// ParseDataURI returns the media type ("type/subtype") and the decoded
// payload of a data URI.
func ParseDataURI(s string) (string, []byte, error) {
	if assets.AssetKey(s).Kind() != assets.KindDataURI {
		return "", nil, errNotDataURI
	}
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return "", nil, err
	}
	return du.ContentType(), du.Data, nil
}
