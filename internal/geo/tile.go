// Package geo derives OpenStreetMap tiles and external map links for a pool.
package geo

import (
	"fmt"
	"math"
	"net/url"
)

const (
	DefaultZoom = 15
	tileHost    = "https://tile.openstreetmap.org"
)

type Tile struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zoom int `json:"zoom"`
}

// GridTile is one cell of a 2x2 tile mosaic.
type GridTile struct {
	URL string `json:"url"`
	Col int    `json:"col"`
	Row int    `json:"row"`
}

// LatLngToTile projects WGS84 coordinates onto Web-Mercator tile indices.
func LatLngToTile(lat, lng float64, zoom int) Tile {
	n := math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180
	x := math.Floor((lng + 180) / 360 * n)
	y := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)
	return Tile{X: int(x), Y: int(y), Zoom: zoom}
}

func (t Tile) URL() string {
	return fmt.Sprintf("%s/%d/%d/%d.png", tileHost, t.Zoom, t.X, t.Y)
}

// TileURL returns the tile covering the point; zoom <= 0 uses DefaultZoom.
func TileURL(lat, lng float64, zoom int) string {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return LatLngToTile(lat, lng, zoom).URL()
}

// TileGrid returns the tile covering the point plus its east, south and
// south-east neighbours.
func TileGrid(lat, lng float64, zoom int) []GridTile {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	base := LatLngToTile(lat, lng, zoom)
	out := make([]GridTile, 0, 4)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			t := Tile{X: base.X + col, Y: base.Y + row, Zoom: zoom}
			out = append(out, GridTile{URL: t.URL(), Col: col, Row: row})
		}
	}
	return out
}

// KakaoMapURL links to a Kakao Map pin for the pool.
func KakaoMapURL(name string, lat, lng float64) string {
	return fmt.Sprintf("https://map.kakao.com/link/map/%s,%s,%s",
		url.PathEscape(name), formatCoord(lat), formatCoord(lng))
}

// NaverMapURL links to a Naver Map search, centred on the pool when
// coordinates are known.
func NaverMapURL(name string, lat, lng *float64) string {
	base := "https://map.naver.com/p/search/" + url.PathEscape(name)
	if lat == nil || lng == nil {
		return base
	}
	return fmt.Sprintf("%s?c=%s,%s,15,0,0,0,dh", base, formatCoord(*lng), formatCoord(*lat))
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%g", v)
}
