package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// portRecord mirrors one entry of ports.json. Pointers distinguish a missing
// coordinate from a legitimate zero.
type portRecord struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Region    string   `json:"region"`
	Lon       *float64 `json:"lon"`
	Lat       *float64 `json:"lat"`
	Alternate *string  `json:"alternate"`
	IsEEA     bool     `json:"is_eea"`
}

// LoadPorts reads a JSON array of ports and builds the directory.
func LoadPorts(path string) (*domain.PortDirectory, error) {
	ports, err := readPorts(path)
	if err != nil {
		return nil, err
	}
	dir, err := domain.NewPortDirectory(ports)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dir, nil
}

func readPorts(path string) ([]domain.Port, error) {
	rc, err := openSource(path)
	if err != nil {
		return nil, fmt.Errorf("open ports: %w", err)
	}
	defer rc.Close()

	var records []portRecord
	if err := json.NewDecoder(rc).Decode(&records); err != nil {
		return nil, fmt.Errorf("%s: decode ports: %w", path, err)
	}

	ports := make([]domain.Port, 0, len(records))
	for i, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: port %d: missing name", path, i)
		}
		if r.Lon == nil || r.Lat == nil {
			return nil, fmt.Errorf("%s: port %q: %w: missing lon/lat", path, name, domain.ErrInvalidCoordinates)
		}
		p := domain.Port{
			Name:    name,
			Country: strings.TrimSpace(r.Country),
			Region:  strings.TrimSpace(r.Region),
			Lon:     *r.Lon,
			Lat:     *r.Lat,
			IsEEA:   r.IsEEA,
		}
		if r.Alternate != nil {
			p.Alternate = strings.TrimSpace(*r.Alternate)
		}
		ports = append(ports, p)
	}
	return ports, nil
}
