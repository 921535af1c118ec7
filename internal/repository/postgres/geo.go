package postgres

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

// srid is WGS84, the reference system of every stored point.
const srid = 4326

// encodePoint converts coordinates to an EWKB point (x = lng, y = lat).
func encodePoint(c domain.Coordinates) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{c.Lng, c.Lat}).SetSRID(srid)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("encode point: %w", err)
	}
	return data, nil
}

// decodePoint parses an EWKB point back into coordinates.
func decodePoint(data []byte) (domain.Coordinates, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode point: %w", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("decode point: unexpected geometry %T", g)
	}
	return domain.Coordinates{Lat: p.Y(), Lng: p.X()}, nil
}
