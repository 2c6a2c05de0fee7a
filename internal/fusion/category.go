package fusion

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// defaultCategoryWeight applies to categories absent from the value table.
const defaultCategoryWeight = 0.5

// DefaultCategoryWeights returns the built-in business-value table. Values
// are in [0,1]; higher means the category converts to revenue more often.
func DefaultCategoryWeights() map[string]float64 {
	return map[string]float64{
		"restaurant":    0.9,
		"fast food":     0.8,
		"hotel":         0.9,
		"supermarket":   0.8,
		"pharmacy":      0.7,
		"hardware":      0.7,
		"wholesale":     0.7,
		"bakery":        0.6,
		"bar":           0.6,
		"salon":         0.5,
		"barber":        0.5,
		"auto repair":   0.6,
		"gas station":   0.6,
		"clothing":      0.5,
		"electronics":   0.7,
		"construction":  0.8,
		"manufacturing": 0.8,
	}
}

// LoadCategoryWeights reads a category value table from a YAML file mapping
// category name to weight. Keys are lowercased; weights outside [0,1] are
// rejected.
func LoadCategoryWeights(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fusion: read category weights")
	}

	raw := make(map[string]float64)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "fusion: parse category weights")
	}

	weights := make(map[string]float64, len(raw))
	for name, w := range raw {
		if w < 0 || w > 1 {
			return nil, eris.Errorf("fusion: category %q weight %.2f outside [0,1]", name, w)
		}
		weights[strings.ToLower(name)] = w
	}
	return weights, nil
}
