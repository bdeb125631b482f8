/*
Copyright © 2018 the soilcn authors.
This file is part of soilcn.

soilcn is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

soilcn is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with soilcn.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package soilcn simulates year-by-year soil carbon and nitrogen pools
// for farm fields using a two-pool (young/old) soil carbon model with a
// parallel nitrogen budget, and estimates the direct and indirect
// nitrogen emissions that result.
package soilcn

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.2.0"

// Conversions from the mass of nitrogen in a compound to the mass of
// the compound [ratios].
const (
	N2ONToN2O = 44. / 28.
	NONToNO   = 30. / 14.
	NH3NToNH3 = 17. / 14.
	NO3NToNO3 = 62. / 14.
)

// YearRecord holds the inputs and, after the year has been simulated,
// the results for one field in one year.
// All pool and flux values are per hectare of field area.
type YearRecord struct {
	// Year is the calendar year.
	Year int

	// Index is the position of the record in the simulation. Index 0
	// is the equilibrium year. It is set by the driver.
	Index int

	CropType string

	Area  float64 `desc:"Field area" units:"ha"`
	Yield float64 `desc:"Crop yield, dry matter" units:"kg/ha"`

	CarbonInputFromProduct    float64 `desc:"Carbon in harvested product" units:"kg C/ha"`
	CarbonInputFromStraw      float64 `desc:"Carbon input from straw" units:"kg C/ha"`
	CarbonInputFromRoots      float64 `desc:"Carbon input from roots" units:"kg C/ha"`
	CarbonInputFromExtraroots float64 `desc:"Carbon input from extra-root material" units:"kg C/ha"`
	ManureCarbonInput         float64 `desc:"Carbon input from manure" units:"kg C/ha"`

	// MoistureContentOfCrop is the water fraction of the harvested product.
	MoistureContentOfCrop float64 `desc:"Moisture content of harvested product" units:"fraction"`

	NitrogenContentInProduct   float64 `desc:"Nitrogen concentration of product" units:"kg N/kg"`
	NitrogenContentInStraw     float64 `desc:"Nitrogen concentration of straw" units:"kg N/kg"`
	NitrogenContentInRoots     float64 `desc:"Nitrogen concentration of roots" units:"kg N/kg"`
	NitrogenContentInExtraroot float64 `desc:"Nitrogen concentration of extra-root material" units:"kg N/kg"`

	// NitrogenFixation is the fraction of crop nitrogen demand supplied by
	// biological fixation. If zero, the farm default is used.
	NitrogenFixation float64 `desc:"Fraction of crop N demand met by fixation" units:"fraction"`

	ClimateParameter float64 `desc:"Climate decomposition factor" units:"-"`
	ManagementFactor float64 `desc:"Management decomposition factor" units:"-"`

	// OrganicNitrogenApplied is the organic nitrogen applied to the whole
	// field in the year.
	OrganicNitrogenApplied float64 `desc:"Organic nitrogen applied to the field" units:"kg N"`

	ManureApplications []ManureApplication

	ManureResidueNitrogen float64 `desc:"Manure nitrogen entering the manure residue pool" units:"kg N/ha"`

	// Carbon results
	YoungPoolAboveGroundCarbon float64 `desc:"Young pool carbon from above-ground residue" units:"kg C/ha"`
	YoungPoolBelowGroundCarbon float64 `desc:"Young pool carbon from below-ground residue" units:"kg C/ha"`
	YoungPoolManureCarbon      float64 `desc:"Young pool carbon from manure" units:"kg C/ha"`
	YoungPoolCarbon            float64 `desc:"Young pool carbon" units:"kg C/ha"`
	OldPoolCarbon              float64 `desc:"Old pool carbon" units:"kg C/ha"`
	SoilCarbon                 float64 `desc:"Total soil carbon" units:"kg C/ha"`
	ChangeInSoilCarbon         float64 `desc:"Change in soil carbon from the previous year" units:"kg C/ha"`

	// Nitrogen results
	AboveGroundResidueNitrogen float64 `desc:"Nitrogen in above-ground crop residue inputs" units:"kg N/ha"`
	BelowGroundResidueNitrogen float64 `desc:"Nitrogen in below-ground crop residue inputs" units:"kg N/ha"`
	AboveGroundResiduePool     float64 `desc:"Above-ground residue nitrogen remaining in the field" units:"kg N/ha"`
	BelowGroundResiduePool     float64 `desc:"Below-ground residue nitrogen remaining in the field" units:"kg N/ha"`

	CropResiduesBeforeAdjustment float64 `desc:"Nitrogen released from crop residues" units:"kg N/ha"`
	CropResiduesAfterAdjustment  float64 `desc:"Nitrogen released from crop residues after emissions" units:"kg N/ha"`
	ManurePool                   float64 `desc:"Manure residue nitrogen pool" units:"kg N/ha"`
	ManureRelease                float64 `desc:"Nitrogen released from the manure residue pool" units:"kg N/ha"`
	MineralPool                  float64 `desc:"Nitrogen mineralized from the old carbon pool" units:"kg N/ha"`
	MineralPoolAfterAdjustment   float64 `desc:"Mineralized nitrogen after emissions" units:"kg N/ha"`
	OrganicPoolBeforeEmissions   float64 `desc:"Organic nitrogen pool before emissions" units:"kg N/ha"`
	OrganicPoolAfterEmissions    float64 `desc:"Organic nitrogen pool after emissions" units:"kg N/ha"`
	OrganicPool                  float64 `desc:"Organic nitrogen pool at the end of the year" units:"kg N/ha"`
	MicrobePool                  float64 `desc:"Microbial nitrogen pool at the end of the year" units:"kg N/ha"`

	MicrobialPoolAfterOldPoolDemandAdjustment float64 `desc:"Microbial nitrogen after the old pool demand" units:"kg N/ha"`
	MicrobialPoolAfterCropDemandAdjustment    float64 `desc:"Microbial nitrogen after the crop demand" units:"kg N/ha"`

	FixationNitrogen            float64 `desc:"Nitrogen supplied by biological fixation" units:"kg N/ha"`
	TotalInputsBeforeReductions float64 `desc:"Nitrogen inputs before emissions and uptake" units:"kg N/ha"`
	BalanceResidual             float64 `desc:"Nitrogen budget closure residual" units:"kg N/ha"`
	OldPoolNitrogenRequirement  float64 `desc:"Nitrogen required by the change in old pool carbon" units:"kg N/ha"`
	CropNitrogenDemand          float64 `desc:"Crop nitrogen demand net of fixation" units:"kg N/ha"`
	TotalUptake                 float64 `desc:"Total nitrogen uptake" units:"kg N/ha"`
	NitrogenDeficit             float64 `desc:"Nitrogen demand that the pools could not supply" units:"kg N/ha"`

	// Emission results
	DirectN2ON         float64 `desc:"Direct N2O-N emissions" units:"kg N/ha"`
	NON                float64 `desc:"NO-N emissions from nitrification" units:"kg N/ha"`
	LeachingN2ON       float64 `desc:"Indirect N2O-N emissions from leaching" units:"kg N/ha"`
	NO3NLeached        float64 `desc:"Nitrate-N leached" units:"kg N/ha"`
	VolatilizationN2ON float64 `desc:"Indirect N2O-N emissions from volatilization" units:"kg N/ha"`
	NH4NVolatilized    float64 `desc:"Ammonium-N volatilized" units:"kg N/ha"`
	TotalN2ON          float64 `desc:"Total N2O-N emissions" units:"kg N/ha"`
	TotalN2O           float64 `desc:"Total N2O emissions" units:"kg N2O/ha"`
	TotalNO            float64 `desc:"Total NO emissions" units:"kg NO/ha"`
	TotalNO3           float64 `desc:"Total nitrate leached" units:"kg NO3/ha"`
	TotalNH3           float64 `desc:"Total ammonia volatilized" units:"kg NH3/ha"`

	LandAppliedManureIndirectN2O float64 `desc:"Indirect N2O from land-applied manure" units:"kg N2O"`
	LandAppliedManureNH3         float64 `desc:"Ammonia from land-applied manure" units:"kg NH3"`

	// Diagnostics holds the recoverable problems encountered while the
	// year was simulated.
	Diagnostics []Diagnostic

	// inputDiagnostics are problems found while preparing the inputs.
	inputDiagnostics []Diagnostic

	// manureDiagnostics are problems found while calculating the
	// land-applied manure emissions.
	manureDiagnostics []Diagnostic
}

// ManureState is the physical state of applied manure.
type ManureState string

// Manure states.
const (
	Liquid ManureState = "Liquid"
	Solid  ManureState = "Solid"
)

// ApplicationMethod is the method used to apply manure to a field.
type ApplicationMethod string

// Manure application methods.
const (
	Broadcast        ApplicationMethod = "Broadcast"
	Incorporated     ApplicationMethod = "Incorporated"
	ShallowInjection ApplicationMethod = "ShallowInjection"
	DeepInjection    ApplicationMethod = "DeepInjection"
)

// ManureApplication is a single application of manure to a field.
type ManureApplication struct {
	Date   time.Time
	State  ManureState
	Method ApplicationMethod

	// AmountPerHectare is the amount of manure applied [kg/ha].
	AmountPerHectare float64

	// NitrogenContent is the nitrogen concentration of the manure [kg N/kg].
	NitrogenContent float64
}

// DailyEmissionRecord holds the manure available for land application on
// a day that manure is applied. The Emission Factor Calculator attaches
// the indirect emissions that result.
type DailyEmissionRecord struct {
	Date time.Time

	// TotalVolume is the amount of manure available for application [kg].
	TotalVolume float64

	// TAN is the total ammoniacal nitrogen in TotalVolume [kg N].
	TAN float64

	// NitrogenAvailable is the nitrogen in TotalVolume available for
	// land application [kg N].
	NitrogenAvailable float64

	LeachingFraction       float64
	EmissionFactorLeaching float64

	LeachingN2ON       float64 // kg N
	AmmoniaN           float64 // kg N
	VolatilizationN2ON float64 // kg N

	// TotalIndirectN2O is the indirect N2O from volatilization and
	// leaching of the manure applied on this day [kg N2O].
	TotalIndirectN2O float64

	// FieldIndirectN2O holds TotalIndirectN2O split by field name.
	FieldIndirectN2O map[string]float64
}

// FarmDefaults holds the parameters shared by all fields on a farm.
// It is read-only during a simulation.
type FarmDefaults struct {
	DecompositionRateConstantYoungPool float64 // year⁻¹
	DecompositionRateConstantOldPool   float64 // year⁻¹

	// OldPoolCarbonN is the nitrogen to carbon ratio of the old pool.
	OldPoolCarbonN float64

	NitrogenFixation    float64
	CarbonConcentration float64 // kg C/kg dry matter
	MicrobeDeath        float64

	UseClimateParameterInsteadOfManagementFactor bool

	HumificationCoefficientAboveGround float64
	HumificationCoefficientBelowGround float64
	HumificationCoefficientManure      float64

	// NORatio is the ratio of NO-N to N2O-N from nitrification.
	NORatio float64

	EmissionFactorLeaching       float64
	EmissionFactorVolatilization float64

	FractionVolatilizedCropResidue float64
	FractionVolatilizedMineral     float64
	FractionVolatilizedOrganic     float64

	MinimumLeachingFraction float64
	MaximumLeachingFraction float64

	// BalanceTolerance is the relative and absolute tolerance used when
	// closing the nitrogen budget.
	BalanceTolerance float64
}

// DefaultFarmDefaults returns the published default parameter values.
func DefaultFarmDefaults() *FarmDefaults {
	return &FarmDefaults{
		DecompositionRateConstantYoungPool: 0.8,
		DecompositionRateConstantOldPool:   0.00605,
		OldPoolCarbonN:                     0.1,
		NitrogenFixation:                   0,
		CarbonConcentration:                0.45,
		MicrobeDeath:                       0.2,
		UseClimateParameterInsteadOfManagementFactor: true,
		HumificationCoefficientAboveGround:           0.125,
		HumificationCoefficientBelowGround:           0.3,
		HumificationCoefficientManure:                0.31,
		NORatio:                        0.1,
		EmissionFactorLeaching:         0.011,
		EmissionFactorVolatilization:   0.01,
		FractionVolatilizedCropResidue: 0,
		FractionVolatilizedMineral:     0,
		FractionVolatilizedOrganic:     0.21,
		MinimumLeachingFraction:        0.05,
		MaximumLeachingFraction:        0.3,
		BalanceTolerance:               1.e-9,
	}
}

// DecompositionFactor returns the factor that scales decomposition rates
// in r: the climate parameter or the management factor, depending on
// UseClimateParameterInsteadOfManagementFactor. Every decomposition
// equation uses this value.
func (d *FarmDefaults) DecompositionFactor(r *YearRecord) float64 {
	if d.UseClimateParameterInsteadOfManagementFactor {
		return r.ClimateParameter
	}
	return r.ManagementFactor
}

// NitrogenFixationFraction returns the fixation fraction for r.
func (d *FarmDefaults) NitrogenFixationFraction(r *YearRecord) float64 {
	if r.NitrogenFixation > 0 {
		return r.NitrogenFixation
	}
	return d.NitrogenFixation
}

// Field is a farm field simulated over a sequence of years.
type Field struct {
	Name string

	// Years holds one record per simulated year, in order.
	Years []*YearRecord

	Defaults *FarmDefaults
	Climate  *ClimateContext

	// Engines are the pool engines run each year, in order.
	Engines []PoolEngine

	// InitFuncs are run once before the first year.
	InitFuncs []FieldManipulator

	// CleanupFuncs are run once after the last year.
	CleanupFuncs []FieldManipulator

	// Log receives diagnostics and status messages. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger

	status RunStatus

	// startTime is set when the field is initialized.
	startTime time.Time
}

// FieldManipulator is a class of functions that operate on a field.
type FieldManipulator func(f *Field) error
