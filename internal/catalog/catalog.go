// Package catalog loads the static tables of the booking form (sizes, price
// tables, availability calendars, locations and time slots).
//
// The tables are read once at start, from the embedded default or from a file
// named by configuration, and are read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"trailer-booking/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type fileFormat struct {
	Categories     []domain.TrailerCategory `yaml:"categories"`
	Locations      []string                 `yaml:"locations"`
	DeliveryOption string                   `yaml:"delivery_option"`
	DeliveryNotice string                   `yaml:"delivery_notice"`
	Calendar       struct {
		TimeZone string `yaml:"time_zone"`
	} `yaml:"calendar"`
	TimeSlots struct {
		Start string        `yaml:"start"`
		End   string        `yaml:"end"`
		Step  time.Duration `yaml:"step"`
	} `yaml:"time_slots"`
}

// Default returns the catalog embedded in the binary
func Default() (*domain.Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded default when path is empty
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates a YAML catalog document
func Parse(data []byte) (*domain.Catalog, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}

	cat := &domain.Catalog{
		Categories:       doc.Categories,
		Locations:        doc.Locations,
		DeliveryOption:   doc.DeliveryOption,
		DeliveryNotice:   doc.DeliveryNotice,
		CalendarTimeZone: doc.Calendar.TimeZone,
	}
	if cat.DeliveryOption == "" {
		cat.DeliveryOption = domain.DefaultDeliveryOption
	}
	if cat.DeliveryNotice == "" {
		cat.DeliveryNotice = domain.DefaultDeliveryNotice
	}
	if cat.CalendarTimeZone == "" {
		cat.CalendarTimeZone = domain.DefaultCalendarTimeZone
	}
	if _, err := time.LoadLocation(cat.CalendarTimeZone); err != nil {
		return nil, fmt.Errorf("invalid calendar time zone %q: %w", cat.CalendarTimeZone, err)
	}

	start, end, step := doc.TimeSlots.Start, doc.TimeSlots.End, doc.TimeSlots.Step
	if start == "" {
		start = "06:00"
	}
	if end == "" {
		end = "22:00"
	}
	if step == 0 {
		step = 30 * time.Minute
	}
	slots, err := domain.GenerateTimeSlots(start, end, step)
	if err != nil {
		return nil, fmt.Errorf("time slots: %w", err)
	}
	cat.TimeSlots = slots

	if err := validate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func validate(cat *domain.Catalog) error {
	if len(cat.Categories) == 0 {
		return fmt.Errorf("catalog has no trailer categories")
	}

	seen := make(map[domain.Category]bool)
	for _, c := range cat.Categories {
		if !c.Name.IsValid() {
			return fmt.Errorf("unknown trailer category %q", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate trailer category %q", c.Name)
		}
		seen[c.Name] = true

		if len(c.Sizes) == 0 {
			return fmt.Errorf("category %q has no sizes", c.Name)
		}
		sizes := make(map[string]bool)
		for _, s := range c.Sizes {
			if s.Name == "" {
				return fmt.Errorf("category %q has a size without a name", c.Name)
			}
			if sizes[s.Name] {
				return fmt.Errorf("category %q lists size %q twice", c.Name, s.Name)
			}
			sizes[s.Name] = true
		}
	}

	for _, loc := range cat.Locations {
		if loc == "" || loc == cat.DeliveryOption {
			return fmt.Errorf("invalid location %q", loc)
		}
	}
	return nil
}
