package decision

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

func TestRegistryLookup(t *testing.T) {
	reg := DefaultRegistry()
	cases := map[string]string{
		"tomato":  "Tomato",
		"TOMATO":  "Tomato",
		"Maize":   "Maize",
		"potato":  "Potato",
		"lettuce": "Lettuce",
		"":        "Generic Crop",
		"quinoa":  "Generic Crop",
	}
	for key, want := range cases {
		if got := reg.Lookup(key).Name; got != want {
			t.Errorf("Lookup(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestBuiltinProfilesAreValid(t *testing.T) {
	reg := DefaultRegistry()
	want := []string{"default", "lettuce", "maize", "potato", "tomato"}
	if got := reg.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v", got)
	}
	for _, k := range reg.Keys() {
		if err := reg.Lookup(k).Validate(); err != nil {
			t.Errorf("%s: %v", k, err)
		}
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	reg := DefaultRegistry()
	p := reg.Lookup("tomato")
	p.GrowthStageFactor[entities.StageFlowering] = 9
	if got := reg.Lookup("tomato").StageFactor(entities.StageFlowering); got != 1.2 {
		t.Fatalf("registry mutated through lookup: %v", got)
	}
}

func TestLoadRegistryMergesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.yaml")
	body := `crops:
  Strawberry:
    moisture_optimal_min: 65
    moisture_optimal_max: 80
    moisture_critical_min: 45
    moisture_critical_max: 90
    ph_optimal_min: 5.5
    ph_optimal_max: 6.5
    nitrogen_min: 90
    phosphorus_min: 35
    potassium_min: 140
    temp_optimal_min: 15
    temp_optimal_max: 26
    growth_stage_factor:
      flowering: 1.25
  tomato:
    name: Cherry Tomato
    moisture_optimal_min: 62
    moisture_optimal_max: 78
    moisture_critical_min: 42
    moisture_critical_max: 88
    ph_optimal_min: 6.0
    ph_optimal_max: 6.8
    nitrogen_min: 100
    phosphorus_min: 40
    potassium_min: 150
    temp_optimal_min: 18
    temp_optimal_max: 28
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	s := reg.Lookup("strawberry")
	if s.Name != "Strawberry" || s.StageFactor(entities.StageFlowering) != 1.25 {
		t.Fatalf("strawberry = %+v", s)
	}
	if got := reg.Lookup("tomato"); got.Name != "Cherry Tomato" || got.MoistureOptimalMax != 78 {
		t.Fatalf("tomato override not applied: %+v", got)
	}
	if got := reg.Lookup("maize").Name; got != "Maize" {
		t.Fatalf("built-ins lost: %q", got)
	}
}

func TestLoadRegistryRejectsBrokenProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.yaml")
	body := `crops:
  rice:
    moisture_optimal_min: 80
    moisture_optimal_max: 70
    moisture_critical_min: 50
    moisture_critical_max: 95
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadRegistry(path)
	if err == nil || !strings.Contains(err.Error(), "rice") {
		t.Fatalf("expected validation error naming rice, got %v", err)
	}
}

func TestLoadRegistryEmptyPathAndMissingFile(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil || len(reg.Keys()) != 5 {
		t.Fatalf("empty path: %v %v", reg, err)
	}
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewRegistryAddsDefault(t *testing.T) {
	reg, err := NewRegistry(map[string]entities.CropProfile{"Rice": DefaultRegistry().Lookup("tomato")})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(reg.Keys(), []string{"default", "rice"}) {
		t.Fatalf("keys = %v", reg.Keys())
	}
}

func TestMemoryLogRecent(t *testing.T) {
	l := NewMemoryLog()
	for _, id := range []string{"a", "b", "c"} {
		l.Append(messages.DecisionRecord{ID: id})
	}
	ids := func(recs []messages.DecisionRecord) []string {
		out := []string{}
		for _, r := range recs {
			out = append(out, r.ID)
		}
		return out
	}
	if got := ids(l.Recent(2)); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Recent(2) = %v", got)
	}
	if got := ids(l.Recent(10)); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Recent(10) = %v", got)
	}
	if got := l.Recent(0); len(got) != 0 {
		t.Fatalf("Recent(0) = %v", got)
	}
	if got := l.Recent(-1); len(got) != 0 {
		t.Fatalf("Recent(-1) = %v", got)
	}
	if l.Len() != 3 {
		t.Fatalf("Len = %d", l.Len())
	}
}

func TestMemoryLogConcurrentAppend(t *testing.T) {
	l := NewMemoryLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				l.Append(messages.DecisionRecord{Reasons: []string{"x"}})
			}
		}()
	}
	wg.Wait()
	if l.Len() != 1000 {
		t.Fatalf("Len = %d, want 1000", l.Len())
	}
}
