package domain

// FormView is everything a client needs to render the form.
// It is derived from a BookingForm and the catalog, never stored.
type FormView struct {
	Form *BookingForm `json:"form"`

	ShowSize    bool     `json:"show_size"`
	SizeLabel   string   `json:"size_label,omitempty"`
	SizeOptions []string `json:"size_options,omitempty"`

	ShowPricing bool        `json:"show_pricing"`
	Pricing     []PriceRate `json:"pricing,omitempty"`
	PricingNote string      `json:"pricing_note,omitempty"`

	ShowCalendar bool   `json:"show_calendar"`
	CalendarID   string `json:"calendar_id,omitempty"`
	CalendarURL  string `json:"calendar_url,omitempty"`

	ShowWindow bool         `json:"show_window"`
	Window     RentalWindow `json:"window"`

	ShowPickupAddress  bool   `json:"show_pickup_address"`
	ShowDropOffAddress bool   `json:"show_drop_off_address"`
	ShowDeliveryNotice bool   `json:"show_delivery_notice"`
	DeliveryNotice     string `json:"delivery_notice,omitempty"`

	SubmitLabel    string      `json:"submit_label"`
	SubmitDisabled bool        `json:"submit_disabled"`
	Message        string      `json:"message,omitempty"`
	MessageKind    MessageKind `json:"message_kind,omitempty"`
}

// View applies the field visibility rules to the form's current state
func (f *BookingForm) View(cat *Catalog) *FormView {
	v := &FormView{
		Form:        f,
		SubmitLabel: SubmitLabelIdle,
		Message:     f.Submission.Message,
		MessageKind: f.Submission.Kind,
	}

	if f.Category != CategoryNone {
		v.ShowSize = true
		v.SizeLabel = SizeLabel(f.Category)
		v.SizeOptions = cat.Sizes(f.Category)
		v.ShowWindow = true
		v.Window = f.Window()
	}

	if f.Category != CategoryNone && f.Size != "" {
		if rates := cat.Rates(f.Category, f.Size); len(rates) > 0 {
			v.ShowPricing = true
			v.Pricing = rates
			if c, ok := cat.Category(f.Category); ok {
				v.PricingNote = c.PricingNote
			}
		}
		if id := cat.CalendarID(f.Category, f.Size); id != "" {
			v.ShowCalendar = true
			v.CalendarID = id
			v.CalendarURL = cat.CalendarEmbedURL(id)
		}
	}

	v.ShowPickupAddress = f.Pickup.Option == cat.DeliveryOption
	v.ShowDropOffAddress = f.DropOff.Option == cat.DeliveryOption
	if v.ShowPickupAddress || v.ShowDropOffAddress {
		v.ShowDeliveryNotice = true
		v.DeliveryNotice = cat.DeliveryNotice
	}

	if f.Submission.Submitting {
		v.SubmitLabel = SubmitLabelSubmitting
		v.SubmitDisabled = true
	}
	return v
}
