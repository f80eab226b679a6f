package types

type ComponentType string

const (
	ComponentCryoPoorPlasma             ComponentType = "Cryo Poor Plasma"
	ComponentCryoprecipitate            ComponentType = "Cryoprecipitate"
	ComponentFreshFrozenPlasma          ComponentType = "Fresh Frozen Plasma"
	ComponentIrradiatedRBC              ComponentType = "Irradiated RBC"
	ComponentLeukoreducedRBC            ComponentType = "Leukoreduced RBC"
	ComponentPackedRedBloodCells        ComponentType = "Packed Red Blood Cells"
	ComponentPlasma                     ComponentType = "Plasma"
	ComponentPlateletConcentrate        ComponentType = "Platelet Concentrate"
	ComponentPlateletRichPlasma         ComponentType = "Platelet Rich Plasma"
	ComponentPlateletsAdditiveSolutions ComponentType = "Platelets additive solutions"
	ComponentRandomDonorPlatelets       ComponentType = "Random Donor Platelets"
	ComponentSagmPackedRBC              ComponentType = "Sagm Packed RBC"
	ComponentSingleDonorPlasma          ComponentType = "Single Donor Plasma"
	ComponentSingleDonorPlatelet        ComponentType = "Single Donor Platelet"
	ComponentWholeBlood                 ComponentType = "Whole Blood"
)

var ComponentTypes = []ComponentType{
	ComponentCryoPoorPlasma,
	ComponentCryoprecipitate,
	ComponentFreshFrozenPlasma,
	ComponentIrradiatedRBC,
	ComponentLeukoreducedRBC,
	ComponentPackedRedBloodCells,
	ComponentPlasma,
	ComponentPlateletConcentrate,
	ComponentPlateletRichPlasma,
	ComponentPlateletsAdditiveSolutions,
	ComponentRandomDonorPlatelets,
	ComponentSagmPackedRBC,
	ComponentSingleDonorPlasma,
	ComponentSingleDonorPlatelet,
	ComponentWholeBlood,
}

func (c ComponentType) Valid() bool {
	for _, known := range ComponentTypes {
		if c == known {
			return true
		}
	}
	return false
}

type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

var BloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

func (g BloodGroup) Valid() bool {
	for _, known := range BloodGroups {
		if g == known {
			return true
		}
	}
	return false
}
