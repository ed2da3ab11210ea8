package metadata

// Index is the decoded litcal_metadata object returned by GET /calendars.
type Index struct {
	NationalCalendars   []NationalCalendar `json:"national_calendars"`
	DiocesanCalendars   []DiocesanCalendar `json:"diocesan_calendars"`
	DiocesanGroups      []DiocesanGroup    `json:"diocesan_groups"`
	WiderRegions        []WiderRegion      `json:"wider_regions"`
	Locales             []string           `json:"locales"`
	NationalCalendarIDs []string           `json:"national_calendars_keys,omitempty"`
	DiocesanCalendarIDs []string           `json:"diocesan_calendars_keys,omitempty"`
}

// NationalCalendar describes one national calendar.
type NationalCalendar struct {
	CalendarID  string            `json:"calendar_id"`
	Missals     []string          `json:"missals,omitempty"`
	Locales     []string          `json:"locales,omitempty"`
	WiderRegion string            `json:"wider_region,omitempty"`
	Dioceses    []string          `json:"dioceses,omitempty"`
	Settings    *CalendarSettings `json:"settings,omitempty"`
}

// DiocesanCalendar describes one diocesan calendar and the nation it belongs to.
type DiocesanCalendar struct {
	CalendarID string            `json:"calendar_id"`
	Diocese    string            `json:"diocese"`
	Nation     string            `json:"nation"`
	Locales    []string          `json:"locales,omitempty"`
	Timezone   string            `json:"timezone,omitempty"`
	Group      string            `json:"group,omitempty"`
	Settings   *CalendarSettings `json:"settings,omitempty"`
}

// DiocesanGroup is a set of dioceses that share a calendar.
type DiocesanGroup struct {
	GroupName string   `json:"group_name"`
	Dioceses  []string `json:"dioceses"`
}

// WiderRegion is a supranational region such as Europe or the Americas.
type WiderRegion struct {
	Name    string   `json:"name"`
	Locales []string `json:"locales,omitempty"`
	APIPath string   `json:"api_path,omitempty"`
}

// CalendarSettings are the movable-feast choices a calendar makes.
type CalendarSettings struct {
	Epiphany          string `json:"epiphany,omitempty"`
	Ascension         string `json:"ascension,omitempty"`
	CorpusChristi     string `json:"corpus_christi,omitempty"`
	EternalHighPriest *bool  `json:"eternal_high_priest,omitempty"`
}
