package geo

import (
	"net/url"
	"strings"
	"testing"
)

func TestLatLngToTile_ReferencePoints(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		zoom     int
		want     Tile
	}{
		{"world tile", 37.5665, 126.9780, 0, Tile{X: 0, Y: 0, Zoom: 0}},
		{"null island z1", 0, 0, 1, Tile{X: 1, Y: 1, Zoom: 1}},
		{"london z10", 51.5074, -0.1278, 10, Tile{X: 511, Y: 340, Zoom: 10}},
		{"seoul city hall z15", 37.5665, 126.9780, 15, Tile{X: 27941, Y: 12689, Zoom: 15}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LatLngToTile(tc.lat, tc.lng, tc.zoom)
			if got != tc.want {
				t.Fatalf("tile=%+v want=%+v", got, tc.want)
			}
		})
	}
}

func TestTileURL_DefaultZoom(t *testing.T) {
	got := TileURL(37.5665, 126.9780, 0)
	want := "https://tile.openstreetmap.org/15/27941/12689.png"
	if got != want {
		t.Fatalf("url=%s want=%s", got, want)
	}
}

func TestTileGrid_Layout(t *testing.T) {
	grid := TileGrid(37.5665, 126.9780, 15)
	want := []GridTile{
		{URL: "https://tile.openstreetmap.org/15/27941/12689.png", Col: 0, Row: 0},
		{URL: "https://tile.openstreetmap.org/15/27942/12689.png", Col: 1, Row: 0},
		{URL: "https://tile.openstreetmap.org/15/27941/12690.png", Col: 0, Row: 1},
		{URL: "https://tile.openstreetmap.org/15/27942/12690.png", Col: 1, Row: 1},
	}
	if len(grid) != len(want) {
		t.Fatalf("len=%d want=%d", len(grid), len(want))
	}
	for i := range want {
		if grid[i] != want[i] {
			t.Fatalf("grid[%d]=%+v want=%+v", i, grid[i], want[i])
		}
	}
}

func TestKakaoMapURL(t *testing.T) {
	got := KakaoMapURL("올림픽 수영장", 37.5665, 126.978)
	if !strings.HasPrefix(got, "https://map.kakao.com/link/map/") {
		t.Fatalf("url=%s", got)
	}
	if !strings.HasSuffix(got, ",37.5665,126.978") {
		t.Fatalf("url=%s missing coords", got)
	}
	name := strings.TrimSuffix(strings.TrimPrefix(got, "https://map.kakao.com/link/map/"), ",37.5665,126.978")
	decoded, err := url.PathUnescape(name)
	if err != nil || decoded != "올림픽 수영장" {
		t.Fatalf("name=%q err=%v", decoded, err)
	}
}

func TestNaverMapURL(t *testing.T) {
	lat, lng := 37.5665, 126.978
	got := NaverMapURL("잠실", &lat, &lng)
	if !strings.HasSuffix(got, "?c=126.978,37.5665,15,0,0,0,dh") {
		t.Fatalf("url=%s", got)
	}
	noCoords := NaverMapURL("잠실", nil, nil)
	if strings.Contains(noCoords, "?c=") {
		t.Fatalf("url=%s should not carry a centre", noCoords)
	}
}
