package rates

import (
	"encoding/json"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bher20/fxratemanager/pkg/providers"
	"github.com/bher20/fxratemanager/pkg/providers/bureaus"
)

// BureauDescriptor configures one quoted bureau.
type BureauDescriptor = bureaus.Descriptor

const (
	bureausEnv     = "FXRATEMANAGER_BUREAUS_JSON"
	bureausFileEnv = "FXRATEMANAGER_BUREAUS_FILE"
)

// defaultBureaus keeps the fx bureaus first and the two gold-ounce bureaus
// last, so clients relying on positions 0-3 and 4-5 still work.
func defaultBureaus() []BureauDescriptor {
	return []BureauDescriptor{
		{
			Key:    "ahlatci",
			Name:   "Ahlatcı Döviz",
			URL:    "https://www.ahlatcidoviz.com.tr",
			Group:  providers.GroupFX,
			Kind:   bureaus.KindReferenceSpread,
			Spread: 0.003,
		},
		{
			Key:    "harem",
			Name:   "Harem Altın",
			URL:    "https://www.haremaltin.com/?lang=en",
			Group:  providers.GroupFX,
			Kind:   bureaus.KindReferenceSpread,
			Spread: 0.0035,
		},
		{
			Key:    "hakan",
			Name:   "Hakan Döviz",
			URL:    "https://www.hakandoviz.com/canli-piyasalar",
			Group:  providers.GroupFX,
			Kind:   bureaus.KindReferenceSpread,
			Spread: 0.0032,
		},
		{
			Key:   "carsi",
			Name:  "Çarşı Döviz",
			URL:   "https://carsidoviz.com",
			Group: providers.GroupFX,
			Kind:  bureaus.KindCarsiHTML,
		},
		{
			Key:     "istanbul",
			Name:    "İstanbul",
			URL:     "https://www.haremaltin.com/?lang=en",
			Group:   providers.GroupGoldOunce,
			Kind:    bureaus.KindGoldPremium,
			Premium: 0.0006,
			Spread:  0.0004,
		},
		{
			Key:    "london",
			Name:   "London",
			URL:    "https://www.lbma.org.uk/prices-and-data/precious-metal-prices",
			Group:  providers.GroupGoldOunce,
			Kind:   bureaus.KindGoldSpot,
			Spread: 0.0004,
		},
	}
}

// Bureaus returns the configured bureau list. A JSON array in
// FXRATEMANAGER_BUREAUS_JSON wins over a YAML file named by
// FXRATEMANAGER_BUREAUS_FILE; invalid or empty overrides fall back to the
// defaults.
func Bureaus() []BureauDescriptor {
	if raw := os.Getenv(bureausEnv); raw != "" {
		var out []BureauDescriptor
		if err := json.Unmarshal([]byte(raw), &out); err == nil && len(out) > 0 {
			return out
		}
		log.Printf("rates: ignoring invalid %s", bureausEnv)
	}
	if path := os.Getenv(bureausFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var doc struct {
				Bureaus []BureauDescriptor `yaml:"bureaus"`
			}
			if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Bureaus) > 0 {
				return doc.Bureaus
			}
		}
		log.Printf("rates: ignoring unreadable %s=%s", bureausFileEnv, path)
	}
	return defaultBureaus()
}

// GetBureau looks up a descriptor by key in the current Bureaus() list.
func GetBureau(key string) (BureauDescriptor, bool) {
	for _, b := range Bureaus() {
		if b.Key == key {
			return b, true
		}
	}
	return BureauDescriptor{}, false
}
