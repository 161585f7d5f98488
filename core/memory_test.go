package session

import "testing"

func ptr[T any](v T) *T { return &v }

func TestMemoryStoreSnapshotIsACopy(t *testing.T) {
	store := newMemoryStore()
	store.Set("city", "SF")

	snapshot := store.Snapshot()
	snapshot["city"] = "LA"

	if value, _ := store.Get("city"); value != "SF" {
		t.Fatalf("expected snapshot mutation to not affect store, got %q", value)
	}
}

func TestMemoryStoreResetClearsValues(t *testing.T) {
	store := newMemoryStore()
	store.Set("city", "SF")

	store.Reset()

	if len(store.Snapshot()) != 0 {
		t.Fatalf("expected empty store after reset")
	}
}

func TestMergeMarkerOverwritesOnlySetFields(t *testing.T) {
	current := Marker{
		Lat:      10,
		Lng:      20,
		Location: "X",
	}

	merged := mergeMarker(current, MarkerPatch{
		Temperature: &Reading{Value: 21.5, Units: "°C"},
	})

	if merged.Lat != 10 || merged.Lng != 20 || merged.Location != "X" {
		t.Fatalf("expected coordinates to be preserved, got %+v", merged)
	}
	if merged.Temperature == nil || merged.Temperature.Value != 21.5 {
		t.Fatalf("expected temperature to be set, got %+v", merged.Temperature)
	}
	if merged.WindSpeed != nil {
		t.Fatalf("expected wind speed to stay unset")
	}
}

func TestMergeMarkerReplacesCoordinates(t *testing.T) {
	current := Marker{Lat: 1, Lng: 2, Temperature: &Reading{Value: 5, Units: "°C"}}

	merged := mergeMarker(current, MarkerPatch{
		Lat:      ptr(10.0),
		Lng:      ptr(20.0),
		Location: ptr("Berlin"),
	})

	if merged.Lat != 10 || merged.Lng != 20 || merged.Location != "Berlin" {
		t.Fatalf("expected coordinates to be replaced, got %+v", merged)
	}
	if merged.Temperature == nil {
		t.Fatalf("expected temperature to survive a coordinate-only patch")
	}
}

func TestMergeMarkerCopiesReadings(t *testing.T) {
	patch := MarkerPatch{WindSpeed: &Reading{Value: 3, Units: "m/s"}}

	merged := mergeMarker(Marker{}, patch)
	patch.WindSpeed.Value = 99

	if merged.WindSpeed.Value != 3 {
		t.Fatalf("expected merged marker to own its reading, got %+v", merged.WindSpeed)
	}
}
