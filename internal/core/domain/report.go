package domain

import (
	"sort"
	"time"
)

// MaxAreaBars caps the area distribution chart.
const MaxAreaBars = 8

// Dataset is the ticket and user list a report is derived from.
type Dataset struct {
	Tickets  []Ticket
	Users    []User
	LoadedAt time.Time
}

// ReportStats are the four headline metrics.
type ReportStats struct {
	Total             int     `json:"total"`
	Completed         int     `json:"completed"`
	Overdue           int     `json:"overdue"`
	AvgProcessingDays float64 `json:"avgProcessingDays"`
}

// StatCard is one rendered headline metric.
type StatCard struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Bar is a single labelled value of a bar chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarChart is a titled series of bars in display order.
type BarChart struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Unit  string `json:"unit,omitempty"`
	Bars  []Bar  `json:"bars"`
}

// ReportCharts groups the charts of the reports view.
type ReportCharts struct {
	ByArea         BarChart `json:"byArea"`
	ByTechnician   BarChart `json:"byTechnician"`
	Workload       BarChart `json:"workload"`
	ProcessingTime BarChart `json:"processingTime"`
}

// Report is the fully derived reports view for one filter state.
type Report struct {
	Filters ReportFilters `json:"filters"`
	Today   time.Time     `json:"today"`
	Stats   ReportStats   `json:"stats"`
	Cards   []StatCard    `json:"cards"`
	Charts  ReportCharts  `json:"charts"`
}

// FilterTickets applies filters to tickets. Tickets without a parseable entry
// date are dropped whenever the time range is bounded.
func FilterTickets(tickets []Ticket, filters ReportFilters, today time.Time) []Ticket {
	filters = filters.Normalize()
	bounded := filters.TimeRange.IsBounded()
	cutoff := filters.TimeRange.Cutoff(today)

	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if bounded {
			entry, ok := ParseLocalDate(t.EntryDate, today.Location())
			if !ok || entry.Before(cutoff) {
				continue
			}
		}
		if filters.Area != FilterAll && t.AreaLabel() != filters.Area {
			continue
		}
		if filters.Status != FilterAll && string(t.Status) != filters.Status {
			continue
		}
		if filters.Technician != FilterAll && t.Technician != filters.Technician {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ComputeStats derives the headline metrics of tickets.
func ComputeStats(tickets []Ticket, loc *time.Location) ReportStats {
	stats := ReportStats{Total: len(tickets)}

	var sum float64
	var resolved int
	for _, t := range tickets {
		switch t.Status {
		case StatusCompleted:
			stats.Completed++
			if days, ok := t.ProcessingDays(loc); ok {
				sum += days
				resolved++
			}
		case StatusOverdue:
			stats.Overdue++
		}
	}

	if resolved > 0 {
		stats.AvgProcessingDays = RoundOneDecimal(sum / float64(resolved))
	}
	return stats
}

// counter tallies values per label while remembering first-seen order.
type counter struct {
	order  []string
	values map[string]float64
}

func newCounter(seed []string) *counter {
	c := &counter{values: make(map[string]float64, len(seed))}
	for _, label := range seed {
		c.ensure(label)
	}
	return c
}

func (c *counter) ensure(label string) {
	if _, ok := c.values[label]; !ok {
		c.order = append(c.order, label)
		c.values[label] = 0
	}
}

func (c *counter) add(label string, v float64) {
	c.ensure(label)
	c.values[label] += v
}

func (c *counter) bars() []Bar {
	bars := make([]Bar, 0, len(c.order))
	for _, label := range c.order {
		bars = append(bars, Bar{Label: label, Value: c.values[label]})
	}
	return bars
}

// sortDescending orders bars by value, keeping collection order on ties.
func sortDescending(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Value > bars[j].Value
	})
}

// CountByArea returns ticket counts per area, largest first, capped at limit.
// Tickets without an area are counted under NotAvailable.
func CountByArea(tickets []Ticket, limit int) []Bar {
	c := newCounter(nil)
	for _, t := range tickets {
		c.add(t.AreaLabel(), 1)
	}

	bars := c.bars()
	sortDescending(bars)
	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}
	return bars
}

// CountByTechnician returns ticket counts for every technician, including
// known technicians without tickets, largest first.
func CountByTechnician(tickets []Ticket, technicians []string) []Bar {
	c := newCounter(technicians)
	for _, t := range tickets {
		if t.HasTechnician() {
			c.add(t.Technician, 1)
		}
	}

	bars := c.bars()
	sortDescending(bars)
	return bars
}

// WorkloadByTechnician returns each technician's percentage share of the
// active assigned tickets. All shares are zero when nothing is active.
func WorkloadByTechnician(tickets []Ticket, technicians []string) []Bar {
	c := newCounter(technicians)
	var active int
	for _, t := range tickets {
		if !t.HasTechnician() {
			continue
		}
		c.ensure(t.Technician)
		if t.IsActive() {
			c.add(t.Technician, 1)
			active++
		}
	}

	bars := c.bars()
	for i := range bars {
		if active == 0 {
			bars[i].Value = 0
			continue
		}
		bars[i].Value = RoundOneDecimal(bars[i].Value / float64(active) * 100)
	}
	sortDescending(bars)
	return bars
}

// ProcessingTimeByTechnician returns the mean processing days per technician
// over their resolved tickets, zero for technicians with none.
func ProcessingTimeByTechnician(tickets []Ticket, technicians []string, loc *time.Location) []Bar {
	sums := newCounter(technicians)
	counts := make(map[string]int, len(technicians))
	for _, t := range tickets {
		if !t.HasTechnician() {
			continue
		}
		sums.ensure(t.Technician)
		if !t.IsCompleted() {
			continue
		}
		days, ok := t.ProcessingDays(loc)
		if !ok {
			continue
		}
		sums.add(t.Technician, days)
		counts[t.Technician]++
	}

	bars := sums.bars()
	for i := range bars {
		n := counts[bars[i].Label]
		if n == 0 {
			bars[i].Value = 0
			continue
		}
		bars[i].Value = RoundOneDecimal(bars[i].Value / float64(n))
	}
	sortDescending(bars)
	return bars
}

// BuildReport derives the complete reports view from a dataset.
// today is the frozen reference date; its location is used for parsing.
func BuildReport(ds Dataset, filters ReportFilters, today time.Time) *Report {
	filters = filters.Normalize()
	today = StartOfDay(today)
	loc := today.Location()

	filtered := FilterTickets(ds.Tickets, filters, today)
	technicians := TechnicianNames(ds.Users)
	stats := ComputeStats(filtered, loc)

	return &Report{
		Filters: filters,
		Today:   today,
		Stats:   stats,
		Cards:   statCards(stats),
		Charts: ReportCharts{
			ByArea: BarChart{
				Key:   "tickets_by_area",
				Title: "Tickets by area",
				Bars:  CountByArea(filtered, MaxAreaBars),
			},
			ByTechnician: BarChart{
				Key:   "tickets_by_technician",
				Title: "Tickets by technician",
				Bars:  CountByTechnician(filtered, technicians),
			},
			Workload: BarChart{
				Key:   "technician_workload",
				Title: "Active workload by technician",
				Unit:  "%",
				Bars:  WorkloadByTechnician(filtered, technicians),
			},
			ProcessingTime: BarChart{
				Key:   "technician_processing_time",
				Title: "Average processing time by technician",
				Unit:  "days",
				Bars:  ProcessingTimeByTechnician(filtered, technicians, loc),
			},
		},
	}
}

func statCards(stats ReportStats) []StatCard {
	return []StatCard{
		{Key: "total", Label: "Total tickets", Value: float64(stats.Total)},
		{Key: "completed", Label: "Completed", Value: float64(stats.Completed)},
		{Key: "overdue", Label: "Overdue", Value: float64(stats.Overdue)},
		{Key: "avg_processing_days", Label: "Avg. processing time", Value: stats.AvgProcessingDays, Unit: "days"},
	}
}

// Options derives the filter control values from a dataset.
func Options(ds Dataset) FilterOptions {
	seen := make(map[string]bool)
	areas := make([]string, 0)
	for _, t := range ds.Tickets {
		area := t.AreaLabel()
		if seen[area] {
			continue
		}
		seen[area] = true
		areas = append(areas, area)
	}
	sort.Strings(areas)

	return FilterOptions{
		TimeRanges:  AllTimeRanges(),
		Areas:       areas,
		Statuses:    AllStatuses(),
		Technicians: TechnicianNames(ds.Users),
	}
}
