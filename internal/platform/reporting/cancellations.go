package reporting

import "time"

// CancellationBucket holds the cancellations of one period split by origin.
type CancellationBucket struct {
	BucketInfo
	Total          int `json:"total"`
	ByPatient      int `json:"porPaciente"`
	ByProfessional int `json:"porProfesional"`
}

// CancellationSummary rolls the whole range up.
type CancellationSummary struct {
	Total           int        `json:"totalCancelaciones"`
	AveragePerGroup float64    `json:"promedioPorPeriodo"`
	Peak            *Peak      `json:"pico"`
	Previous        Comparison `json:"comparacionAnterior"`
	MonthlyAverage  float64    `json:"promedioMensual"`
}

// CancellationReport is the payload of the cancellations report.
type CancellationReport struct {
	Range       RangeInfo            `json:"rango"`
	Filters     Filters              `json:"filtros"`
	Summary     CancellationSummary  `json:"resumen"`
	Series      []CancellationBucket `json:"series"`
	Pagination  *Pagination          `json:"paginacion,omitempty"`
	ByRequester []RequesterCount     `json:"cancelacionesPorOrigen"`
	Reasons     []ReasonCount        `json:"motivos"`
}

func cancellationTime(c CancellationRecord) time.Time { return c.Timestamp }

// BuildCancellationReport aggregates cancellations into a bucketed report. The
// records must cover p.FetchRange(); anything outside it is ignored.
func BuildCancellationReport(records []CancellationRecord, p Params) (*CancellationReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	loc := p.location()
	r := p.Range()

	filtered := make([]CancellationRecord, 0, len(records))
	for _, rec := range records {
		if p.matches(rec.Specialty, rec.ProfessionalID) {
			filtered = append(filtered, rec)
		}
	}

	groups := groupByPeriod(filtered, cancellationTime, p.GroupBy, r, loc)
	series := make([]CancellationBucket, 0, len(groups))
	infos := make([]BucketInfo, 0, len(groups))
	totals := make([]int, 0, len(groups))

	var sum CancellationSummary
	var inRange []CancellationRecord
	for _, g := range groups {
		inRange = append(inRange, g.items...)
		b := CancellationBucket{BucketInfo: g.info, Total: len(g.items)}
		for _, rec := range g.items {
			if rec.RequestedBy.orPatient() == RequesterProfessional {
				b.ByProfessional++
			} else {
				b.ByPatient++
			}
		}
		sum.Total += b.Total
		series = append(series, b)
		infos = append(infos, b.BucketInfo)
		totals = append(totals, b.Total)
	}

	sum.AveragePerGroup = averagePerBucket(sum.Total, len(series))
	sum.Peak = peakOf(infos, totals)
	sum.Previous = Compare(countIn(filtered, cancellationTime, p.PreviousPeriod(), loc), sum.Total)
	sum.MonthlyAverage = rollingMonthlyAverage(filtered, cancellationTime, p)

	page, pagination := Paginate(series, p.Page, p.PageSize)

	return &CancellationReport{
		Range:       rangeInfo(r),
		Filters:     filtersOf(p),
		Summary:     sum,
		Series:      page,
		Pagination:  pagination,
		ByRequester: requesterBreakdown(inRange),
		Reasons:     reasonBreakdown(inRange, DefaultReasonLimit),
	}, nil
}
