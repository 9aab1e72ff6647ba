// Package synth generates Ames-like property records with realistic
// missingness, for tests, benchmarks and demos.
package synth

import (
	"math"
	"math/rand"

	j "github.com/wdm0006/appraiser/pkg/table"
)

var (
	neighborhoods = []struct {
		name    string
		weight  float64
		premium float64
	}{
		{"NAmes", 0.16, 0}, {"CollgCr", 0.11, 25000}, {"OldTown", 0.08, -25000},
		{"Edwards", 0.07, -20000}, {"Somerst", 0.06, 40000}, {"Gilbert", 0.05, 20000},
		{"NridgHt", 0.05, 90000}, {"Sawyer", 0.05, -10000}, {"NWAmes", 0.05, 10000},
		{"SawyerW", 0.04, 5000}, {"BrkSide", 0.04, -30000}, {"Crawfor", 0.035, 20000},
		{"Mitchel", 0.035, 0}, {"NoRidge", 0.03, 110000}, {"Timber", 0.025, 60000},
		{"IDOTRR", 0.025, -45000}, {"ClearCr", 0.02, 30000}, {"StoneBr", 0.015, 120000},
		{"SWISU", 0.015, -20000}, {"Blmngtn", 0.01, 15000}, {"MeadowV", 0.01, -50000},
		{"BrDale", 0.01, -50000}, {"Veenker", 0.008, 50000}, {"NPkVill", 0.006, -10000},
		{"Blueste", 0.002, -20000},
	}
	exteriors  = []string{"VinylSd", "HdBoard", "MetalSd", "Wd Sdng", "Plywood", "CemntBd", "BrkFace", "WdShing"}
	exterior2  = []string{"VinylSd", "HdBoard", "MetalSd", "Wd Sdng", "Wd Shng", "Plywood", "CmentBd", "Brk Cmn"}
	qualities  = []string{"Po", "Fa", "TA", "Gd", "Ex"}
	finTypes   = []string{"Unf", "LwQ", "Rec", "BLQ", "ALQ", "GLQ"}
	exposures  = []string{"No", "Mn", "Av", "Gd"}
	garageType = []string{"Attchd", "Detchd", "BuiltIn", "Basment", "CarPort"}
	zoning     = []string{"RL", "RL", "RL", "RL", "RM", "FV", "RH"}
	styles     = []string{"1Story", "2Story", "1.5Fin", "SLvl", "SFoyer"}
	bldgTypes  = []string{"1Fam", "1Fam", "1Fam", "TwnhsE", "Duplex", "Twnhs", "2fmCon"}
	saleTypes  = []string{"WD", "WD", "WD", "WD", "New", "COD", "ConLD"}
	saleConds  = []string{"Normal", "Normal", "Normal", "Normal", "Partial", "Abnorml", "Family"}
	foundation = []string{"PConc", "CBlock", "BrkTil", "Slab", "Stone"}
	heating    = []string{"GasA", "GasA", "GasA", "GasW", "Grav"}
	electrical = []string{"SBrkr", "SBrkr", "SBrkr", "FuseA", "FuseF"}
	functional = []string{"Typ", "Typ", "Typ", "Typ", "Min1", "Min2", "Mod", "Maj1"}
	lotShapes  = []string{"Reg", "Reg", "IR1", "IR2", "IR3"}
	contours   = []string{"Lvl", "Lvl", "Lvl", "Bnk", "HLS", "Low"}
	slopes     = []string{"Gtl", "Gtl", "Gtl", "Mod", "Sev"}
	fences     = []string{"MnPrv", "GdPrv", "GdWo", "MnWw"}
	masTypes   = []string{"None", "None", "BrkFace", "Stone", "BrkCmn"}
)

// columns lists the Ames attributes in file order with their kinds.
var columns = []j.ColumnSchema{
	{Name: "Id", Type: j.KindInt},
	{Name: "MSSubClass", Type: j.KindInt},
	{Name: "MSZoning", Type: j.KindString, Nullable: true},
	{Name: "LotFrontage", Type: j.KindFloat, Nullable: true},
	{Name: "LotArea", Type: j.KindInt},
	{Name: "Street", Type: j.KindString},
	{Name: "Alley", Type: j.KindString, Nullable: true},
	{Name: "LotShape", Type: j.KindString},
	{Name: "LandContour", Type: j.KindString},
	{Name: "Utilities", Type: j.KindString, Nullable: true},
	{Name: "LandSlope", Type: j.KindString},
	{Name: "Neighborhood", Type: j.KindString},
	{Name: "BldgType", Type: j.KindString},
	{Name: "HouseStyle", Type: j.KindString},
	{Name: "OverallQual", Type: j.KindInt},
	{Name: "OverallCond", Type: j.KindInt},
	{Name: "YearBuilt", Type: j.KindInt},
	{Name: "YearRemodAdd", Type: j.KindInt},
	{Name: "Exterior1st", Type: j.KindString, Nullable: true},
	{Name: "Exterior2nd", Type: j.KindString, Nullable: true},
	{Name: "MasVnrType", Type: j.KindString, Nullable: true},
	{Name: "MasVnrArea", Type: j.KindFloat, Nullable: true},
	{Name: "ExterQual", Type: j.KindString},
	{Name: "ExterCond", Type: j.KindString},
	{Name: "Foundation", Type: j.KindString},
	{Name: "BsmtQual", Type: j.KindString, Nullable: true},
	{Name: "BsmtCond", Type: j.KindString, Nullable: true},
	{Name: "BsmtExposure", Type: j.KindString, Nullable: true},
	{Name: "BsmtFinType1", Type: j.KindString, Nullable: true},
	{Name: "BsmtFinSF1", Type: j.KindFloat, Nullable: true},
	{Name: "BsmtFinType2", Type: j.KindString, Nullable: true},
	{Name: "BsmtFinSF2", Type: j.KindFloat, Nullable: true},
	{Name: "BsmtUnfSF", Type: j.KindFloat, Nullable: true},
	{Name: "TotalBsmtSF", Type: j.KindFloat, Nullable: true},
	{Name: "Heating", Type: j.KindString},
	{Name: "HeatingQC", Type: j.KindString},
	{Name: "CentralAir", Type: j.KindString},
	{Name: "Electrical", Type: j.KindString, Nullable: true},
	{Name: "1stFlrSF", Type: j.KindFloat},
	{Name: "2ndFlrSF", Type: j.KindFloat},
	{Name: "GrLivArea", Type: j.KindFloat},
	{Name: "BsmtFullBath", Type: j.KindFloat, Nullable: true},
	{Name: "BsmtHalfBath", Type: j.KindFloat, Nullable: true},
	{Name: "FullBath", Type: j.KindInt},
	{Name: "HalfBath", Type: j.KindInt},
	{Name: "BedroomAbvGr", Type: j.KindInt},
	{Name: "KitchenAbvGr", Type: j.KindInt},
	{Name: "KitchenQual", Type: j.KindString, Nullable: true},
	{Name: "TotRmsAbvGrd", Type: j.KindInt},
	{Name: "Functional", Type: j.KindString, Nullable: true},
	{Name: "Fireplaces", Type: j.KindInt},
	{Name: "FireplaceQu", Type: j.KindString, Nullable: true},
	{Name: "GarageType", Type: j.KindString, Nullable: true},
	{Name: "GarageYrBlt", Type: j.KindFloat, Nullable: true},
	{Name: "GarageFinish", Type: j.KindString, Nullable: true},
	{Name: "GarageCars", Type: j.KindFloat, Nullable: true},
	{Name: "GarageArea", Type: j.KindFloat, Nullable: true},
	{Name: "GarageQual", Type: j.KindString, Nullable: true},
	{Name: "GarageCond", Type: j.KindString, Nullable: true},
	{Name: "PavedDrive", Type: j.KindString},
	{Name: "WoodDeckSF", Type: j.KindFloat},
	{Name: "OpenPorchSF", Type: j.KindFloat},
	{Name: "EnclosedPorch", Type: j.KindFloat},
	{Name: "3SsnPorch", Type: j.KindFloat},
	{Name: "ScreenPorch", Type: j.KindFloat},
	{Name: "PoolArea", Type: j.KindFloat},
	{Name: "PoolQC", Type: j.KindString, Nullable: true},
	{Name: "Fence", Type: j.KindString, Nullable: true},
	{Name: "MiscFeature", Type: j.KindString, Nullable: true},
	{Name: "MiscVal", Type: j.KindFloat},
	{Name: "MoSold", Type: j.KindInt},
	{Name: "YrSold", Type: j.KindInt},
	{Name: "SaleType", Type: j.KindString, Nullable: true},
	{Name: "SaleCondition", Type: j.KindString},
	{Name: "SalePrice", Type: j.KindFloat, Nullable: true},
}

// Schema returns the Ames schema, target included.
func Schema() j.Schema {
	return j.Schema{Columns: append([]j.ColumnSchema(nil), columns...)}
}

// Generator produces deterministic records for a seed.
type Generator struct {
	rng *rand.Rand
	// MissingScale multiplies every missingness rate; 1 is Ames-like.
	MissingScale float64
}

func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), MissingScale: 1}
}

// Table generates n rows with ids starting at 1.
func Table(n int, seed int64) *j.Table {
	t, _ := j.FromRecords(New(seed).Records(n), Schema())
	return t
}

func (g *Generator) Records(n int) []j.Record {
	out := make([]j.Record, n)
	for i := range out {
		out[i] = g.Record(i + 1)
	}
	return out
}

func (g *Generator) pick(vals []string) string { return vals[g.rng.Intn(len(vals))] }

func (g *Generator) missing(rate float64) bool { return g.rng.Float64() < rate*g.MissingScale }

func (g *Generator) between(lo, hi int) int { return lo + g.rng.Intn(hi-lo+1) }

func (g *Generator) neighborhood() (string, float64) {
	u := g.rng.Float64()
	acc := 0.0
	for _, n := range neighborhoods {
		acc += n.weight
		if u < acc {
			return n.name, n.premium
		}
	}
	last := neighborhoods[len(neighborhoods)-1]
	return last.name, last.premium
}

// quality maps an overall 1-10 score to a quality label, with jitter.
func (g *Generator) quality(overall int) string {
	idx := (overall-1)/2 + g.rng.Intn(3) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(qualities) {
		idx = len(qualities) - 1
	}
	return qualities[idx]
}

// Record generates one property with the given id. Missing values are nil.
func (g *Generator) Record(id int) j.Record {
	r := j.Record{"Id": id}
	hood, premium := g.neighborhood()
	qual := g.between(3, 10)
	cond := g.between(3, 9)
	yrSold := g.between(2006, 2010)
	built := g.between(1880, yrSold)
	remod := built
	if g.rng.Float64() < 0.4 {
		remod = g.between(built, yrSold)
	}

	r["MSSubClass"] = []int{20, 30, 50, 60, 70, 80, 90, 120, 160, 190}[g.rng.Intn(10)]
	r["MSZoning"] = g.pick(zoning)
	r["LotArea"] = g.between(1500, 25000)
	if !g.missing(0.17) {
		r["LotFrontage"] = float64(g.between(30, 130))
	}
	r["Street"] = "Pave"
	if g.rng.Float64() < 0.005 {
		r["Street"] = "Grvl"
	}
	if !g.missing(0.93) {
		r["Alley"] = g.pick([]string{"Grvl", "Pave"})
	}
	r["LotShape"] = g.pick(lotShapes)
	r["LandContour"] = g.pick(contours)
	if !g.missing(0.002) {
		r["Utilities"] = "AllPub"
	}
	r["LandSlope"] = g.pick(slopes)
	r["Neighborhood"] = hood
	r["BldgType"] = g.pick(bldgTypes)
	style := g.pick(styles)
	r["HouseStyle"] = style
	r["OverallQual"] = qual
	r["OverallCond"] = cond
	r["YearBuilt"] = built
	r["YearRemodAdd"] = remod
	if !g.missing(0.001) {
		r["Exterior1st"] = g.pick(exteriors)
		r["Exterior2nd"] = g.pick(exterior2)
	}
	if !g.missing(0.005) {
		mt := g.pick(masTypes)
		r["MasVnrType"] = mt
		r["MasVnrArea"] = 0.0
		if mt != "None" {
			r["MasVnrArea"] = float64(g.between(50, 600))
		}
	}
	r["ExterQual"] = g.quality(qual)
	r["ExterCond"] = g.quality(cond)
	r["Foundation"] = g.pick(foundation)

	first := float64(g.between(600, 2200))
	second := 0.0
	if style == "2Story" || style == "1.5Fin" {
		second = float64(g.between(300, 1400))
	}
	living := first + second
	bsmt := 0.0
	if !g.missing(0.03) {
		bsmt = math.Round(first * (0.6 + 0.4*g.rng.Float64()))
		fin1 := math.Round(bsmt * g.rng.Float64())
		r["BsmtQual"] = g.quality(qual)
		r["BsmtCond"] = g.quality(cond)
		r["BsmtExposure"] = g.pick(exposures)
		r["BsmtFinType1"] = g.pick(finTypes)
		r["BsmtFinType2"] = "Unf"
		r["BsmtFinSF1"] = fin1
		r["BsmtFinSF2"] = 0.0
		r["BsmtUnfSF"] = bsmt - fin1
		r["TotalBsmtSF"] = bsmt
		r["BsmtFullBath"] = float64(g.rng.Intn(2))
		r["BsmtHalfBath"] = float64(g.rng.Intn(2) * g.rng.Intn(2))
	} else {
		r["BsmtFinSF1"] = 0.0
		r["BsmtFinSF2"] = 0.0
		r["BsmtUnfSF"] = 0.0
		r["TotalBsmtSF"] = 0.0
		r["BsmtFullBath"] = 0.0
		r["BsmtHalfBath"] = 0.0
	}
	r["Heating"] = g.pick(heating)
	r["HeatingQC"] = g.quality(qual)
	r["CentralAir"] = "Y"
	if g.rng.Float64() < 0.07 {
		r["CentralAir"] = "N"
	}
	if !g.missing(0.001) {
		r["Electrical"] = g.pick(electrical)
	}
	r["1stFlrSF"] = first
	r["2ndFlrSF"] = second
	r["GrLivArea"] = living
	r["FullBath"] = g.between(1, 3)
	r["HalfBath"] = g.rng.Intn(2)
	beds := g.between(1, 5)
	r["BedroomAbvGr"] = beds
	r["KitchenAbvGr"] = 1
	r["KitchenQual"] = g.quality(qual)
	r["TotRmsAbvGrd"] = beds + g.between(2, 5)
	r["Functional"] = g.pick(functional)
	fireplaces := g.rng.Intn(3)
	r["Fireplaces"] = fireplaces
	if fireplaces > 0 {
		r["FireplaceQu"] = g.quality(qual)
	}

	cars := 0
	if !g.missing(0.055) {
		cars = g.between(1, 3)
		r["GarageType"] = g.pick(garageType)
		gy := g.between(built, yrSold)
		if g.rng.Float64() < 0.01 {
			gy = built + g.between(1, 5)
		}
		r["GarageYrBlt"] = float64(gy)
		r["GarageFinish"] = g.pick([]string{"Unf", "RFn", "Fin"})
		r["GarageCars"] = float64(cars)
		r["GarageArea"] = float64(cars*g.between(200, 320))
		r["GarageQual"] = "TA"
		r["GarageCond"] = "TA"
	} else {
		r["GarageCars"] = 0.0
		r["GarageArea"] = 0.0
	}
	r["PavedDrive"] = g.pick([]string{"Y", "Y", "Y", "P", "N"})
	r["WoodDeckSF"] = float64(g.rng.Intn(2) * g.between(50, 400))
	r["OpenPorchSF"] = float64(g.rng.Intn(2) * g.between(20, 200))
	r["EnclosedPorch"] = float64(g.rng.Intn(8) / 7 * g.between(50, 250))
	r["3SsnPorch"] = 0.0
	r["ScreenPorch"] = float64(g.rng.Intn(10) / 9 * g.between(80, 250))
	r["PoolArea"] = 0.0
	if g.rng.Float64() < 0.005 {
		r["PoolArea"] = float64(g.between(400, 700))
		r["PoolQC"] = g.pick([]string{"Gd", "Ex", "Fa"})
	}
	if !g.missing(0.8) {
		r["Fence"] = g.pick(fences)
	}
	r["MiscVal"] = 0.0
	if g.rng.Float64() < 0.04 {
		r["MiscFeature"] = "Shed"
		r["MiscVal"] = float64(g.between(300, 2500))
	}
	r["MoSold"] = g.between(1, 12)
	r["YrSold"] = yrSold
	if !g.missing(0.001) {
		r["SaleType"] = g.pick(saleTypes)
	}
	r["SaleCondition"] = g.pick(saleConds)

	price := 20000 +
		55*living +
		25*bsmt +
		14000*float64(qual) +
		3000*float64(cond) +
		9000*float64(cars) +
		6000*float64(fireplaces) -
		350*float64(yrSold-built) +
		premium
	price *= math.Exp(g.rng.NormFloat64() * 0.1)
	r["SalePrice"] = math.Round(math.Max(price, 35000))
	return r
}
