package reporting

import "time"

// AppointmentBucket holds the per-status counts of one period.
type AppointmentBucket struct {
	BucketInfo
	Total     int     `json:"total"`
	Attended  int     `json:"asistidos"`
	NoShow    int     `json:"noAsistidos"`
	Canceled  int     `json:"cancelados"`
	Scheduled int     `json:"programados"`
	Waiting   int     `json:"enEspera"`
	Rate      float64 `json:"tasa"`
}

// AppointmentSummary rolls the whole range up.
type AppointmentSummary struct {
	Total           int        `json:"totalTurnos"`
	Attended        int        `json:"asistidos"`
	NoShow          int        `json:"noAsistidos"`
	Canceled        int        `json:"cancelados"`
	Scheduled       int        `json:"programados"`
	Waiting         int        `json:"enEspera"`
	AttendanceRate  float64    `json:"tasaAsistencia"`
	NoShowRate      float64    `json:"tasaAusentismo"`
	CancelationRate float64    `json:"tasaCancelacion"`
	AveragePerGroup float64    `json:"promedioPorPeriodo"`
	Peak            *Peak      `json:"pico"`
	Previous        Comparison `json:"comparacionAnterior"`
	MonthlyAverage  float64    `json:"promedioMensual"`
}

// AppointmentReport is the payload of the appointments report.
type AppointmentReport struct {
	Range         RangeInfo           `json:"rango"`
	Filters       Filters             `json:"filtros"`
	Summary       AppointmentSummary  `json:"resumen"`
	Series        []AppointmentBucket `json:"series"`
	Pagination    *Pagination         `json:"paginacion,omitempty"`
	Specialties   []SpecialtyCount    `json:"especialidades"`
	Professionals []ProfessionalRank  `json:"profesionales"`
}

func appointmentTime(a AppointmentRecord) time.Time { return a.Timestamp }

// BuildAppointmentReport aggregates appointments into a bucketed report. The
// records must cover p.FetchRange(); anything outside it is ignored.
func BuildAppointmentReport(records []AppointmentRecord, p Params) (*AppointmentReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	loc := p.location()
	r := p.Range()

	filtered := make([]AppointmentRecord, 0, len(records))
	for _, rec := range records {
		if p.matches(rec.Specialty, rec.ProfessionalID) {
			filtered = append(filtered, rec)
		}
	}

	groups := groupByPeriod(filtered, appointmentTime, p.GroupBy, r, loc)
	series := make([]AppointmentBucket, 0, len(groups))
	infos := make([]BucketInfo, 0, len(groups))
	totals := make([]int, 0, len(groups))

	var sum AppointmentSummary
	var inRange, attended []AppointmentRecord
	for _, g := range groups {
		inRange = append(inRange, g.items...)
		b := AppointmentBucket{BucketInfo: g.info, Total: len(g.items)}
		for _, rec := range g.items {
			switch rec.Status {
			case StatusAttended:
				b.Attended++
				attended = append(attended, rec)
			case StatusNoShow:
				b.NoShow++
			case StatusCanceled:
				b.Canceled++
			case StatusScheduled:
				b.Scheduled++
			case StatusWaiting:
				b.Waiting++
			}
		}
		b.Rate = ratio(b.Attended, b.Total)

		sum.Total += b.Total
		sum.Attended += b.Attended
		sum.NoShow += b.NoShow
		sum.Canceled += b.Canceled
		sum.Scheduled += b.Scheduled
		sum.Waiting += b.Waiting

		series = append(series, b)
		infos = append(infos, b.BucketInfo)
		totals = append(totals, b.Total)
	}

	sum.AttendanceRate = ratio(sum.Attended, sum.Total)
	sum.NoShowRate = ratio(sum.NoShow, sum.Total)
	sum.CancelationRate = ratio(sum.Canceled, sum.Total)
	sum.AveragePerGroup = averagePerBucket(sum.Total, len(series))
	sum.Peak = peakOf(infos, totals)
	sum.Previous = Compare(countIn(filtered, appointmentTime, p.PreviousPeriod(), loc), sum.Total)
	sum.MonthlyAverage = rollingMonthlyAverage(filtered, appointmentTime, p)

	page, pagination := Paginate(series, p.Page, p.PageSize)

	return &AppointmentReport{
		Range:         rangeInfo(r),
		Filters:       filtersOf(p),
		Summary:       sum,
		Series:        page,
		Pagination:    pagination,
		Specialties:   specialtyBreakdown(attended),
		Professionals: professionalRanking(inRange, DefaultProfessionalLimit),
	}, nil
}
