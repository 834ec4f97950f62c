package domain

import (
	"net/url"
	"time"
)

// Category is the top-level trailer type
type Category string

const (
	CategoryNone     Category = ""
	CategoryUtility  Category = "Utility"
	CategoryEnclosed Category = "Enclosed"
)

// Categories lists every category the form understands, in display order
var Categories = []Category{CategoryUtility, CategoryEnclosed}

// IsValid reports whether c is one of the known categories (unset is not valid)
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	// DefaultDeliveryOption is the sentinel location that asks for a typed address
	DefaultDeliveryOption = "Other (Specify Address for Delivery)"
	// DefaultDeliveryNotice warns about the delivery surcharge
	DefaultDeliveryNotice = "NOTE: There is a $50/hour that is driven up charge for delivery."
	// DefaultCalendarTimeZone is used by the availability calendar embed
	DefaultCalendarTimeZone = "America/Chicago"

	calendarEmbedBaseURL = "https://calendar.google.com/calendar/embed"
	timeSlotLayout       = "15:04"
	timeSlotLabelLayout  = "3:04 PM"
)

// PriceRate is one row of a size's price table
type PriceRate struct {
	Duration string `json:"duration" yaml:"duration"`
	Price    string `json:"price" yaml:"price"`
}

// TrailerSize is a specific trailer variant within a category
type TrailerSize struct {
	Name       string      `json:"name" yaml:"name"`
	CalendarID string      `json:"calendar_id,omitempty" yaml:"calendar_id"`
	Rates      []PriceRate `json:"rates" yaml:"rates"`
}

// TrailerCategory groups the sizes offered for one category
type TrailerCategory struct {
	Name        Category      `json:"name" yaml:"name"`
	Label       string        `json:"label" yaml:"label"`
	PricingNote string        `json:"pricing_note,omitempty" yaml:"pricing_note"`
	Sizes       []TrailerSize `json:"sizes" yaml:"sizes"`
}

// TimeSlot is one selectable time of day
type TimeSlot struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Catalog holds the static tables of the booking form.
// It is built once at start and must not be mutated afterwards.
type Catalog struct {
	Categories       []TrailerCategory `json:"categories"`
	Locations        []string          `json:"locations"`
	DeliveryOption   string            `json:"delivery_option"`
	DeliveryNotice   string            `json:"delivery_notice"`
	CalendarTimeZone string            `json:"calendar_time_zone"`
	TimeSlots        []TimeSlot        `json:"time_slots"`
}

// Category returns the category entry for name
func (c *Catalog) Category(name Category) (*TrailerCategory, bool) {
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// Sizes returns the size names offered for a category, in table order
func (c *Catalog) Sizes(name Category) []string {
	cat, ok := c.Category(name)
	if !ok {
		return nil
	}
	sizes := make([]string, 0, len(cat.Sizes))
	for _, s := range cat.Sizes {
		sizes = append(sizes, s.Name)
	}
	return sizes
}

// Size returns the size entry of a category
func (c *Catalog) Size(name Category, size string) (*TrailerSize, bool) {
	cat, ok := c.Category(name)
	if !ok {
		return nil, false
	}
	for i := range cat.Sizes {
		if cat.Sizes[i].Name == size {
			return &cat.Sizes[i], true
		}
	}
	return nil, false
}

// HasSize reports whether size belongs to the category's fixed list
func (c *Catalog) HasSize(name Category, size string) bool {
	_, ok := c.Size(name, size)
	return ok
}

// Rates returns the price table for a category/size pair (nil when unknown)
func (c *Catalog) Rates(name Category, size string) []PriceRate {
	s, ok := c.Size(name, size)
	if !ok {
		return nil
	}
	return s.Rates
}

// CalendarID returns the availability calendar id for a category/size pair
func (c *Catalog) CalendarID(name Category, size string) string {
	s, ok := c.Size(name, size)
	if !ok {
		return ""
	}
	return s.CalendarID
}

// LocationOptions returns the named locations followed by the delivery sentinel
func (c *Catalog) LocationOptions() []string {
	options := make([]string, 0, len(c.Locations)+1)
	options = append(options, c.Locations...)
	return append(options, c.DeliveryOption)
}

// HasLocation reports whether option is a selectable location (sentinel included)
func (c *Catalog) HasLocation(option string) bool {
	for _, loc := range c.LocationOptions() {
		if loc == option {
			return true
		}
	}
	return false
}

// HasTimeSlot reports whether value is one of the generated time slots
func (c *Catalog) HasTimeSlot(value string) bool {
	for _, slot := range c.TimeSlots {
		if slot.Value == value {
			return true
		}
	}
	return false
}

// CalendarEmbedURL builds the read-only weekly calendar embed for id
func (c *Catalog) CalendarEmbedURL(id string) string {
	if id == "" {
		return ""
	}
	tz := c.CalendarTimeZone
	if tz == "" {
		tz = DefaultCalendarTimeZone
	}
	q := url.Values{}
	q.Set("src", id)
	q.Set("ctz", tz)
	q.Set("mode", "WEEK")
	q.Set("showTabs", "0")
	q.Set("showPrint", "0")
	q.Set("showCalendars", "0")
	q.Set("showDate", "1")
	q.Set("showNav", "1")
	q.Set("showTitle", "0")
	return calendarEmbedBaseURL + "?" + q.Encode()
}

// GenerateTimeSlots returns every step boundary from start to end inclusive.
// start and end use the HH:MM layout.
func GenerateTimeSlots(start, end string, step time.Duration) ([]TimeSlot, error) {
	from, err := time.Parse(timeSlotLayout, start)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(timeSlotLayout, end)
	if err != nil {
		return nil, err
	}
	if step <= 0 || to.Before(from) {
		return nil, ErrInvalidTimeSlotRange
	}

	var slots []TimeSlot
	for t := from; !t.After(to); t = t.Add(step) {
		slots = append(slots, TimeSlot{
			Value: t.Format(timeSlotLayout),
			Label: t.Format(timeSlotLabelLayout),
		})
	}
	return slots, nil
}
