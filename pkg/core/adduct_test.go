package core

import (
	"math"
	"strings"
	"testing"
)

const glucoseMass = 180.0633881

func TestParseAdduct(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		molecules  int
		charge     int
		mode       IonMode
		wantMZ     float64
	}{
		{"protonated", "[M+H]+", 1, 1, Positive, 181.0706646},
		{"sodiated", "[M+Na]+", 1, 1, Positive, 203.0526088},
		{"deprotonated", "[M-H]-", 1, 1, Negative, 179.0561117},
		{"doubly protonated", "[M+2H]2+", 1, 2, Positive, 91.0389703},
		{"dimer", "[2M+H]+", 2, 1, Positive, 361.1340527},
		{"formate", "[M+FA-H]-", 1, 1, Negative, 225.0615906},
		{"water loss", "[M+H-H2O]+", 1, 1, Positive, 163.0600999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAdduct(tt.descriptor)
			if err != nil {
				t.Fatalf("ParseAdduct() error = %v", err)
			}
			if !a.FormatCheck {
				t.Errorf("FormatCheck = false, want true")
			}
			if a.MoleculeCount != tt.molecules || a.ChargeNumber != tt.charge || a.IonMode != tt.mode {
				t.Errorf("ParseAdduct() = %+v, want molecules %d charge %d mode %s",
					a, tt.molecules, tt.charge, tt.mode)
			}
			if got := a.PrecursorMZ(glucoseMass); math.Abs(got-tt.wantMZ) > 1e-4 {
				t.Errorf("PrecursorMZ() = %.6f, want %.6f", got, tt.wantMZ)
			}
			if got := a.NeutralMass(a.PrecursorMZ(glucoseMass)); math.Abs(got-glucoseMass) > 1e-9 {
				t.Errorf("NeutralMass() round trip = %.7f, want %.7f", got, glucoseMass)
			}
		})
	}
}

func TestParseAdductInvalid(t *testing.T) {
	tests := []string{
		"M+H",
		"[M+H]",
		"[M+H]2",
		"[M+Xx]+",
		"[M+H]++",
		"[M*H]+",
		"",
	}

	for _, descriptor := range tests {
		a, err := ParseAdduct(descriptor)
		if err == nil {
			t.Errorf("ParseAdduct(%q) expected error", descriptor)
		}
		if a.FormatCheck {
			t.Errorf("ParseAdduct(%q) FormatCheck = true, want false", descriptor)
		}
		if a.Name != strings.TrimSpace(descriptor) {
			t.Errorf("ParseAdduct(%q) Name = %q", descriptor, a.Name)
		}
	}
}

func TestAdductDatabaseLoadFromCSV(t *testing.T) {
	csv := `name,mass
Ac,42.010565

Hex,162.052824
`
	db := NewAdductDatabase()
	if err := db.LoadFromCSV(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadFromCSV() error = %v", err)
	}

	mass, ok := db.GetMass("Hex")
	if !ok || mass != 162.052824 {
		t.Errorf("GetMass(Hex) = %v, %v", mass, ok)
	}

	// Formulas resolve without an entry
	mass, ok = db.GetMass("H2O")
	if !ok || math.Abs(mass-18.010565) > 1e-5 {
		t.Errorf("GetMass(H2O) = %v, %v", mass, ok)
	}

	a, err := db.Parse("[M+Ac+H]+")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := 42.010565 + MassH
	if math.Abs(a.AdductMass-want) > 1e-9 {
		t.Errorf("AdductMass = %v, want %v", a.AdductMass, want)
	}
}

func TestAdductDatabaseLoadFromCSVInvalid(t *testing.T) {
	db := NewAdductDatabase()
	err := db.LoadFromCSV(strings.NewReader("name,mass\nAc,abc\n"))
	if err == nil {
		t.Fatal("Expected error for invalid mass")
	}
	err = db.LoadFromCSV(strings.NewReader("name,mass\nAc\n"))
	if err == nil {
		t.Fatal("Expected error for missing field")
	}
}
