package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/sfaf-etl/internal/domain"
	"github.com/couchcryptid/sfaf-etl/internal/report"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Filter selects records for the list endpoint. Zero values match everything.
type Filter struct {
	Agency       string
	StationClass string
	Band         string
	MinFrequency float64
	MaxFrequency float64
}

func (f Filter) match(rec *domain.NormalizedRecord) bool {
	if f.Agency != "" && !strings.EqualFold(rec.Agency, f.Agency) {
		return false
	}
	if f.Band != "" && !strings.EqualFold(report.Band(rec.CenterFrequency), f.Band) {
		return false
	}
	if f.MinFrequency > 0 && rec.CenterFrequency < f.MinFrequency {
		return false
	}
	if f.MaxFrequency > 0 && rec.CenterFrequency > f.MaxFrequency {
		return false
	}
	if f.StationClass != "" {
		for _, st := range rec.Stations {
			if strings.EqualFold(st.StationClass, f.StationClass) {
				return true
			}
		}
		return false
	}
	return true
}

type listParams struct {
	filter Filter
	offset int
	limit  int
}

func parseListParams(r *http.Request) (listParams, error) {
	q := r.URL.Query()
	p := listParams{
		filter: Filter{
			Agency:       q.Get("agency"),
			StationClass: q.Get("station_class"),
			Band:         q.Get("band"),
		},
		limit: defaultLimit,
	}

	var err error
	if p.filter.MinFrequency, err = floatParam(q, "min_frequency"); err != nil {
		return p, err
	}
	if p.filter.MaxFrequency, err = floatParam(q, "max_frequency"); err != nil {
		return p, err
	}
	if v := q.Get("offset"); v != "" {
		if p.offset, err = strconv.Atoi(v); err != nil || p.offset < 0 {
			return p, fmt.Errorf("invalid offset %q", v)
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.limit, err = strconv.Atoi(v); err != nil || p.limit < 1 {
			return p, fmt.Errorf("invalid limit %q", v)
		}
		p.limit = min(p.limit, maxLimit)
	}
	return p, nil
}

func floatParam(q url.Values, key string) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return f, nil
}
