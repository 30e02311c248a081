package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var defaultCities []byte

// ServiceArea bounds the map centers a catalog may use.
var ServiceArea = orb.Bound{Min: orb.Point{34.2, 29.4}, Max: orb.Point{35.95, 33.4}}

// City represents a city configuration
type City struct {
	Name          string    `json:"name"`
	Center        orb.Point `json:"center"`
	ZoomLevel     int       `json:"zoom_level"`
	Neighborhoods []string  `json:"neighborhoods"`
}

type cityFile struct {
	Cities []struct {
		Name          string    `yaml:"name"`
		Center        []float64 `yaml:"center"`
		ZoomLevel     int       `yaml:"zoom_level"`
		Neighborhoods []string  `yaml:"neighborhoods"`
	} `yaml:"cities"`
}

// Catalog is the set of supported cities and their neighborhoods.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	cities []City
}

// LoadCatalog reads the catalog from path, or the embedded catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseCatalog builds a catalog from YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	cities, err := parseCities(data)
	if err != nil {
		return nil, err
	}
	return &Catalog{cities: cities}, nil
}

// Reload re-reads the catalog file. The embedded catalog never changes.
func (c *Catalog) Reload() error {
	data := defaultCities
	if c.path != "" {
		var err error
		data, err = os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("failed to read cities file: %w", err)
		}
	}
	cities, err := parseCities(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cities = cities
	c.mu.Unlock()
	return nil
}

func parseCities(data []byte) ([]City, error) {
	var file cityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cities: %w", err)
	}

	owner := make(map[string]string)
	cities := make([]City, 0, len(file.Cities))
	for _, raw := range file.Cities {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			return nil, fmt.Errorf("city without a name")
		}
		city := City{Name: name, ZoomLevel: raw.ZoomLevel}
		switch len(raw.Center) {
		case 0:
		case 2:
			// [longitude, latitude]
			city.Center = orb.Point{raw.Center[0], raw.Center[1]}
			if !ServiceArea.Contains(city.Center) {
				return nil, fmt.Errorf("city %q: center %v is outside the service area", name, city.Center)
			}
		default:
			return nil, fmt.Errorf("city %q: center must be [longitude, latitude]", name)
		}
		for _, n := range raw.Neighborhoods {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			if other, ok := owner[n]; ok {
				return nil, fmt.Errorf("neighborhood %q listed under both %q and %q", n, other, name)
			}
			owner[n] = name
			city.Neighborhoods = append(city.Neighborhoods, n)
		}
		cities = append(cities, city)
	}
	return cities, nil
}

// Cities returns a copy of every configured city.
func (c *Catalog) Cities() []City {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]City, len(c.cities))
	for i, city := range c.cities {
		city.Neighborhoods = append([]string(nil), city.Neighborhoods...)
		out[i] = city
	}
	return out
}

// CityNames returns the configured city names in catalog order.
func (c *Catalog) CityNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.cities))
	for i, city := range c.cities {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a city configuration by name, ignoring case.
func (c *Catalog) GetCityByName(name string) *City {
	key := foldName(name)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, city := range c.cities {
		if foldName(city.Name) == key {
			city.Neighborhoods = append([]string(nil), city.Neighborhoods...)
			return &city
		}
	}
	return nil
}

// Neighborhoods returns the neighborhoods of a city, or nil for an unknown city.
func (c *Catalog) Neighborhoods(city string) []string {
	if found := c.GetCityByName(city); found != nil {
		return found.Neighborhoods
	}
	return nil
}

// CityOf returns the city a neighborhood belongs to.
func (c *Catalog) CityOf(neighborhood string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, city := range c.cities {
		for _, n := range city.Neighborhoods {
			if n == neighborhood {
				return city.Name, true
			}
		}
	}
	return "", false
}

// A Caser is stateful, so each call gets its own.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
