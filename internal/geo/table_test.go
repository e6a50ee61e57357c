package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/netnav/netnav/internal/event"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	if table.Size() < 20 {
		t.Errorf("DefaultTable().Size() = %d, want at least 20", table.Size())
	}

	tests := []struct {
		name      string
		city      string
		state     string
		wantLat   float64
		wantLng   float64
		wantFound bool
	}{
		{"durham with state", "Durham", "NC", 35.9940, -78.8986, true},
		{"case and spacing", "  chapel   HILL ", "nc", 35.9132, -79.0558, true},
		{"city only", "Charlotte", "", 35.2271, -80.8431, true},
		{"wrong state", "Durham", "VA", 0, 0, false},
		{"unknown city", "Boone", "NC", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Lookup(tt.city, tt.state)
			if ok != tt.wantFound {
				t.Fatalf("Lookup(%q, %q) found = %v, want %v", tt.city, tt.state, ok, tt.wantFound)
			}
			if !ok {
				return
			}
			if got.Latitude != tt.wantLat || got.Longitude != tt.wantLng {
				t.Errorf("Lookup(%q, %q) = %+v, want {%v %v}", tt.city, tt.state, got, tt.wantLat, tt.wantLng)
			}
		})
	}
}

func TestLoadTableRejectsBadCSV(t *testing.T) {
	_, err := LoadTable([]byte("city,state,latitude,longitude\nDurham,NC,north,west\n"))
	if err == nil {
		t.Error("LoadTable() with non-numeric coordinates should fail")
	}
}

type stubGeocoder struct {
	coords Coordinates
	found  bool
	err    error
	calls  int
}

func (s *stubGeocoder) Geocode(ctx context.Context, loc event.Location) (Coordinates, bool, error) {
	s.calls++
	return s.coords, s.found, s.err
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("table hit skips geocoder", func(t *testing.T) {
		g := &stubGeocoder{coords: Coordinates{1, 2}, found: true}
		r := NewResolver(nil, g)
		got := r.Resolve(ctx, event.Location{City: "Greensboro", State: "NC"})
		if got.Latitude != 36.0726 || got.Longitude != -79.7920 {
			t.Errorf("Resolve() = %+v, want Greensboro coordinates", got)
		}
		if g.calls != 0 {
			t.Errorf("geocoder called %d times, want 0", g.calls)
		}
	})

	t.Run("unknown city without geocoder falls back", func(t *testing.T) {
		r := NewResolver(nil, nil)
		got := r.Resolve(ctx, event.Location{City: "Nowhere", State: "NC"})
		if got != Fallback {
			t.Errorf("Resolve() = %+v, want %+v", got, Fallback)
		}
	})

	t.Run("geocoder answer used for unknown city", func(t *testing.T) {
		g := &stubGeocoder{coords: Coordinates{36.2168, -81.6746}, found: true}
		r := NewResolver(nil, g)
		got := r.Resolve(ctx, event.Location{City: "Boone", State: "NC"})
		if got != g.coords {
			t.Errorf("Resolve() = %+v, want %+v", got, g.coords)
		}
	})

	t.Run("geocoder error falls back", func(t *testing.T) {
		g := &stubGeocoder{err: errors.New("boom")}
		r := NewResolver(nil, g)
		got := r.Resolve(ctx, event.Location{City: "Boone", State: "NC"})
		if got != Fallback {
			t.Errorf("Resolve() = %+v, want %+v", got, Fallback)
		}
	})

	t.Run("geocoder miss falls back", func(t *testing.T) {
		g := &stubGeocoder{found: false}
		r := NewResolver(nil, g)
		got := r.Resolve(ctx, event.Location{City: "Boone", State: "NC"})
		if got != Fallback {
			t.Errorf("Resolve() = %+v, want %+v", got, Fallback)
		}
	})
}
