package geospatial

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

// PolylineDecoder decodes Google encoded polylines (precision 1e5).
type PolylineDecoder struct{}

// NewPolylineDecoder returns a decoder implementing ports.PathDecoder.
func NewPolylineDecoder() *PolylineDecoder {
	return &PolylineDecoder{}
}

// Decode turns an encoded polyline into its ordered points.
// Any failure is returned as a *domain.DecodeError.
func (PolylineDecoder) Decode(encoded string) ([]domain.GeoPoint, error) {
	if encoded == "" {
		return nil, &domain.DecodeError{Err: errors.New("empty path")}
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, &domain.DecodeError{Path: encoded, Err: err}
	}
	if len(rest) != 0 {
		return nil, &domain.DecodeError{Path: encoded, Err: fmt.Errorf("%d trailing bytes", len(rest))}
	}

	points := make([]domain.GeoPoint, len(coords))
	for i, c := range coords {
		points[i] = domain.GeoPoint{Lat: c[0], Lng: c[1]}
	}
	return points, nil
}

// Encode is the inverse of Decode.
func Encode(points []domain.GeoPoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
