// Package config holds the parameters consumed by the isotope detector and
// the identification engine.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// MobilityType selects the CCS calibration model.
type MobilityType string

const (
	// Agilent drift tube, single-field calibration.
	Agilent MobilityType = "agilent"
	// Bruker TIMS, drift time carries 1/K0.
	Bruker MobilityType = "bruker"
)

// Mobility is the ion-mobility calibration table.
type Mobility struct {
	Type        MobilityType `toml:"type"`
	AgilentBeta float64      `toml:"agilent_beta"`
	AgilentTFix float64      `toml:"agilent_tfix"`
}

// Parameters is the full set of recognized options.
type Parameters struct {
	// Mass tolerances in Da
	CentroidMs1Tolerance      float64 `toml:"centroid_ms1_tolerance"`
	CentroidMs2Tolerance      float64 `toml:"centroid_ms2_tolerance"`
	Ms1LibrarySearchTolerance float64 `toml:"ms1_library_search_tolerance"`
	Ms2LibrarySearchTolerance float64 `toml:"ms2_library_search_tolerance"`

	// Retention time tolerance in minutes
	RetentionTimeLibrarySearchTolerance float64 `toml:"retention_time_library_search_tolerance"`

	// CCS tolerance in percent
	CcsSearchTolerance float64 `toml:"ccs_search_tolerance"`

	// Score cutoff on the 0-100 scale
	IdentificationScoreCutOff float64 `toml:"identification_score_cutoff"`

	MaxChargeNumber             int  `toml:"max_charge_number"`
	IsBrClConsideredForIsotopes bool `toml:"is_brcl_considered_for_isotopes"`

	IsUseRetentionInfoForIdentificationFiltering bool `toml:"is_use_retention_info_for_identification_filtering"`
	IsUseRetentionInfoForIdentificationScoring   bool `toml:"is_use_retention_info_for_identification_scoring"`

	IsUseSimpleDotScore      bool     `toml:"is_use_simple_dot_score"`
	SimpleDotCompoundClasses []string `toml:"simple_dot_compound_classes"`

	Ms2MassRangeBegin       float64 `toml:"ms2_mass_range_begin"`
	Ms2MassRangeEnd         float64 `toml:"ms2_mass_range_end"`
	RelativeAbundanceCutOff float64 `toml:"relative_abundance_cutoff"`

	OnlyReportTopHit bool   `toml:"only_report_top_hit"`
	TargetOmics      string `toml:"target_omics"`

	IsIonMobility bool     `toml:"is_ion_mobility"`
	Mobility      Mobility `toml:"mobility"`

	NumThreads              int `toml:"num_threads"`
	CollisionEnergyChannels int `toml:"collision_energy_channels"`
}

// Default returns the parameters used when no file is given.
func Default() Parameters {
	return Parameters{
		CentroidMs1Tolerance:                0.01,
		CentroidMs2Tolerance:                0.025,
		Ms1LibrarySearchTolerance:           0.01,
		Ms2LibrarySearchTolerance:           0.05,
		RetentionTimeLibrarySearchTolerance: 0.5,
		CcsSearchTolerance:                  10,
		IdentificationScoreCutOff:           80,
		MaxChargeNumber:                     2,
		Ms2MassRangeBegin:                   0,
		Ms2MassRangeEnd:                     2000,
		RelativeAbundanceCutOff:             0,
		TargetOmics:                         core.Metabolomics,
		Mobility:                            Mobility{Type: Agilent},
		NumThreads:                          runtime.NumCPU(),
		CollisionEnergyChannels:             1,
	}
}

// Load reads a TOML parameter file on top of the defaults.
func Load(path string) (Parameters, error) {
	p := Default()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, fmt.Errorf("failed to decode parameter file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks that the parameters are usable.
func (p *Parameters) Validate() error {
	var errs []string

	tolerances := []struct {
		name  string
		value float64
	}{
		{"centroid_ms1_tolerance", p.CentroidMs1Tolerance},
		{"centroid_ms2_tolerance", p.CentroidMs2Tolerance},
		{"ms1_library_search_tolerance", p.Ms1LibrarySearchTolerance},
		{"ms2_library_search_tolerance", p.Ms2LibrarySearchTolerance},
		{"retention_time_library_search_tolerance", p.RetentionTimeLibrarySearchTolerance},
	}
	for _, tol := range tolerances {
		if tol.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive", tol.name))
		}
	}

	if p.CcsSearchTolerance < 0 {
		errs = append(errs, "ccs_search_tolerance must be non-negative")
	}
	if p.IdentificationScoreCutOff < 0 || p.IdentificationScoreCutOff > 100 {
		errs = append(errs, "identification_score_cutoff must be within 0-100")
	}
	if p.MaxChargeNumber < 1 {
		errs = append(errs, "max_charge_number must be at least 1")
	}
	if p.Ms2MassRangeEnd <= p.Ms2MassRangeBegin {
		errs = append(errs, "ms2_mass_range_end must be greater than ms2_mass_range_begin")
	}
	if p.RelativeAbundanceCutOff < 0 || p.RelativeAbundanceCutOff >= 100 {
		errs = append(errs, "relative_abundance_cutoff must be within [0, 100)")
	}
	if p.TargetOmics != core.Metabolomics && p.TargetOmics != core.Lipidomics {
		errs = append(errs, fmt.Sprintf("unknown target_omics '%s'", p.TargetOmics))
	}
	if p.IsIonMobility {
		switch p.Mobility.Type {
		case Agilent:
			if p.Mobility.AgilentBeta == 0 {
				errs = append(errs, "mobility.agilent_beta is required for agilent calibration")
			}
		case Bruker:
		default:
			errs = append(errs, fmt.Sprintf("unknown mobility.type '%s'", p.Mobility.Type))
		}
	}
	if p.NumThreads < 1 {
		errs = append(errs, "num_threads must be at least 1")
	}
	if p.CollisionEnergyChannels < 1 {
		errs = append(errs, "collision_energy_channels must be at least 1")
	}

	if len(errs) > 0 {
		return &core.ValidationError{
			Field:   "Parameters",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// IsSimpleDotClass reports whether a compound class is scored with the
// simple dot product.
func (p *Parameters) IsSimpleDotClass(class string) bool {
	if class == "" {
		return false
	}
	for _, c := range p.SimpleDotCompoundClasses {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}
