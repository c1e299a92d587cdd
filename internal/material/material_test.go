package material

import (
	"math"
	"testing"
)

func TestBoxCatalog(t *testing.T) {
	c := Box()

	if c.Cacao.Density != 910.0 {
		t.Errorf("expected cacao density 910, got %f", c.Cacao.Density)
	}
	if c.Wood.Conductivity != 0.128 {
		t.Errorf("expected wood conductivity 0.128, got %f", c.Wood.Conductivity)
	}
	if c.Ambient.Temp != 21.0+KelvinOffset {
		t.Errorf("expected ambient 294.15K, got %f", c.Ambient.Temp)
	}
	if err := c.Limits.Validate(); err != nil {
		t.Errorf("default limits should validate: %v", err)
	}
}

func TestDrumCatalog(t *testing.T) {
	c := Drum()

	if c.Cacao.Density != 580.0 {
		t.Errorf("expected drum cacao density 580, got %f", c.Cacao.Density)
	}
	// Everything else matches the box.
	if c.Wood != Box().Wood {
		t.Error("drum wood properties should match the box")
	}
	if c.Limits != Box().Limits {
		t.Error("drum limits should match the box")
	}
}

func TestDiffusivity(t *testing.T) {
	p := Properties{Conductivity: 0.279, Density: 910.0, SpecificHeat: 920.0}
	want := 0.279 / (910.0 * 920.0)
	if got := p.Diffusivity(); math.Abs(got-want) > 1e-15 {
		t.Errorf("expected diffusivity %g, got %g", want, got)
	}
}

func TestCatalogFor(t *testing.T) {
	c := Box()

	if c.For(RegionWood) != c.Wood {
		t.Error("expected wood properties for wood region")
	}
	if c.For(RegionCacao) != c.Cacao {
		t.Error("expected cacao properties for cacao region")
	}
	if c.For(RegionAir) != c.Air {
		t.Error("expected air properties for air region")
	}
	if c.For(Region(99)) != c.Air {
		t.Error("expected unknown region to resolve to air")
	}
}

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		wantErr bool
	}{
		{"valid", Limits{OptimalMin: 313, OptimalMax: 321, SafeMax: 328, Emergency: 333}, false},
		{"emergency below safe", Limits{OptimalMax: 321, SafeMax: 328, Emergency: 328}, true},
		{"optimal above safe", Limits{OptimalMax: 330, SafeMax: 328, Emergency: 333}, true},
	}

	for _, tt := range tests {
		err := tt.limits.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestRegionString(t *testing.T) {
	tests := []struct {
		region Region
		want   string
	}{
		{RegionWood, "wood"},
		{RegionCacao, "cacao"},
		{RegionAir, "air"},
		{Region(42), "region(42)"},
	}

	for _, tt := range tests {
		if got := tt.region.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
