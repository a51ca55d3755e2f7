package pricing

// Static tier pricing and one-step downgrade tables for every dimension
// the rules optimize. Prices are representative fixed monthly amounts
// (or per-GB-month for size-dependent dimensions); the point of the
// tables is a stable recommendation direction, not billing accuracy.

// vmMonthlyPrice maps a VM size to its fixed monthly price in USD.
var vmMonthlyPrice = map[string]float64{
	"Standard_D2s_v3":  120,
	"Standard_D4s_v3":  240,
	"Standard_D8s_v3":  480,
	"Standard_D16s_v3": 960,
	"Standard_E2s_v3":  150,
	"Standard_E4s_v3":  300,
	"Standard_E8s_v3":  600,
	"Standard_B2s":     35,
	"Standard_B4ms":    140,
}

// vmDowngrade maps a VM size to the next cheaper size one step down.
// Floor sizes are absent.
var vmDowngrade = map[string]string{
	"Standard_D16s_v3": "Standard_D8s_v3",
	"Standard_D8s_v3":  "Standard_D4s_v3",
	"Standard_D4s_v3":  "Standard_D2s_v3",
	"Standard_E8s_v3":  "Standard_E4s_v3",
	"Standard_E4s_v3":  "Standard_E2s_v3",
	"Standard_B4ms":    "Standard_B2s",
}

// diskPricePerGB maps a managed disk SKU to its per-GB monthly price.
var diskPricePerGB = map[string]float64{
	"Premium_LRS":     0.12,
	"StandardSSD_LRS": 0.08,
	"Standard_LRS":    0.04,
}

var diskDowngrade = map[string]string{
	"Premium_LRS":     "StandardSSD_LRS",
	"StandardSSD_LRS": "Standard_LRS",
}

// storagePricePerGB maps a blob access tier to its per-GB monthly price.
var storagePricePerGB = map[string]float64{
	"Hot":     0.0184,
	"Cool":    0.01,
	"Archive": 0.00099,
}

var storageDowngrade = map[string]string{
	"Hot":  "Cool",
	"Cool": "Archive",
}

// sqlMonthlyPrice maps an Azure SQL service objective to its fixed
// monthly price.
var sqlMonthlyPrice = map[string]float64{
	"S0": 15,
	"S1": 30,
	"S2": 75,
	"S3": 150,
	"P1": 465,
	"P2": 930,
}

var sqlDowngrade = map[string]string{
	"P2": "P1",
	"P1": "S3",
	"S3": "S2",
	"S2": "S1",
	"S1": "S0",
}

// appPlanMonthlyPrice maps an App Service plan SKU to its fixed monthly
// price.
var appPlanMonthlyPrice = map[string]float64{
	"B1":   13,
	"S1":   73,
	"P1v3": 126,
	"P2v3": 252,
	"P3v3": 504,
}

var appPlanDowngrade = map[string]string{
	"P3v3": "P2v3",
	"P2v3": "P1v3",
	"P1v3": "S1",
	"S1":   "B1",
}

// Dimension groups a price table with its downgrade table.
type Dimension struct {
	prices     map[string]float64
	downgrades map[string]string
	perGB      bool
}

var (
	VMSize      = Dimension{prices: vmMonthlyPrice, downgrades: vmDowngrade}
	DiskSKU     = Dimension{prices: diskPricePerGB, downgrades: diskDowngrade, perGB: true}
	StorageTier = Dimension{prices: storagePricePerGB, downgrades: storageDowngrade, perGB: true}
	SQLTier     = Dimension{prices: sqlMonthlyPrice, downgrades: sqlDowngrade}
	AppPlanTier = Dimension{prices: appPlanMonthlyPrice, downgrades: appPlanDowngrade}
)

// Dimensions lists every registered dimension, for exhaustive checks.
var Dimensions = map[string]Dimension{
	"vm":      VMSize,
	"disk":    DiskSKU,
	"storage": StorageTier,
	"sql":     SQLTier,
	"appplan": AppPlanTier,
}

// PerGB reports whether this dimension prices per unit of capacity.
func (d Dimension) PerGB() bool { return d.perGB }

// Tiers returns every tier the dimension prices.
func (d Dimension) Tiers() []string {
	tiers := make([]string, 0, len(d.prices))
	for tier := range d.prices {
		tiers = append(tiers, tier)
	}
	return tiers
}

// RecommendedTier returns the tier one step down from current, or
// ("", false) when current is unknown or already at the floor.
func (d Dimension) RecommendedTier(current string) (string, bool) {
	target, ok := d.downgrades[current]
	return target, ok
}

// EstimateSavings returns max(0, price(current)-price(target)) for
// fixed-priced dimensions. Unknown tiers estimate to 0.
func (d Dimension) EstimateSavings(current, target string) float64 {
	cur, okCur := d.prices[current]
	tgt, okTgt := d.prices[target]
	if !okCur || !okTgt {
		return 0
	}
	if cur <= tgt {
		return 0
	}
	return cur - tgt
}

// EstimateSavingsForSize scales the per-GB price delta by sizeGB.
// Returns 0 when either tier is unknown or the size is missing or
// non-positive.
func (d Dimension) EstimateSavingsForSize(current, target string, sizeGB float64) float64 {
	if sizeGB <= 0 {
		return 0
	}
	return d.EstimateSavings(current, target) * sizeGB
}
