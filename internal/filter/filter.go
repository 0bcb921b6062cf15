// Package filter turns the raw state of a list-view filter form into the
// minimal query payload the list endpoints accept.
package filter

import (
	"net/url"
	"strings"

	"github.com/kiwari-pos/ordering/internal/enum"
)

// Status is the raw value of a tri-state flag. Only StatusOff and
// StatusOn are meaningful; anything else counts as unset.
type Status string

const (
	StatusUnset Status = ""
	StatusOff   Status = "0"
	StatusOn    Status = "1"
)

// Valid reports whether s is exactly "0" or "1".
func (s Status) Valid() bool {
	return s == StatusOff || s == StatusOn
}

// Flags is the fixed set of status flags offered by the list views.
type Flags struct {
	IsActive    Status `json:"is_active"`
	IsVerified  Status `json:"is_verified"`
	IsAvailable Status `json:"is_available"`
	IsPaid      Status `json:"is_paid"`
}

// Draft is the unvalidated filter form state.
type Draft struct {
	SortBy   string `json:"sort_by"`
	SortDir  string `json:"sort_dir"`
	DateCol  string `json:"date_col"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
	Flags
	Deleted string `json:"deleted_at"`
}

// Payload holds only the active filters.
type Payload struct {
	SortBy      string `json:"sort_by,omitempty"`
	SortDir     string `json:"sort_dir,omitempty"`
	DateCol     string `json:"date_col,omitempty"`
	FromDate    string `json:"from_date,omitempty"`
	ToDate      string `json:"to_date,omitempty"`
	IsActive    Status `json:"is_active,omitempty"`
	IsVerified  Status `json:"is_verified,omitempty"`
	IsAvailable Status `json:"is_available,omitempty"`
	IsPaid      Status `json:"is_paid,omitempty"`
	Deleted     string `json:"deleted_at,omitempty"`
}

// Normalize drops every field of d that is not actively filtering.
//
// The sort pair is kept only when sort_by is set. sort_dir is matched
// case-insensitively: DESC is kept, and an empty or unrecognized value is
// replaced by ASC rather than dropped. The date range is kept only when
// column, from and to are all set. Flags survive only as "0" or "1", and
// deleted_at only as the not_null sentinel.
func Normalize(d Draft) Payload {
	var p Payload

	if sortBy := strings.TrimSpace(d.SortBy); sortBy != "" {
		p.SortBy = sortBy
		p.SortDir = normalizeSortDir(d.SortDir)
	}

	col := strings.TrimSpace(d.DateCol)
	from := strings.TrimSpace(d.FromDate)
	to := strings.TrimSpace(d.ToDate)
	if col != "" && from != "" && to != "" {
		p.DateCol, p.FromDate, p.ToDate = col, from, to
	}

	p.IsActive = keepStatus(d.IsActive)
	p.IsVerified = keepStatus(d.IsVerified)
	p.IsAvailable = keepStatus(d.IsAvailable)
	p.IsPaid = keepStatus(d.IsPaid)

	if d.Deleted == enum.DeletedNotNull {
		p.Deleted = d.Deleted
	}
	return p
}

func normalizeSortDir(dir string) string {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case enum.SortDirDesc:
		return enum.SortDirDesc
	default:
		return enum.SortDirAsc
	}
}

func keepStatus(s Status) Status {
	if s.Valid() {
		return s
	}
	return StatusUnset
}

// ParseDraft reads a Draft from query parameters using the payload keys.
func ParseDraft(q url.Values) Draft {
	return Draft{
		SortBy:   q.Get(keySortBy),
		SortDir:  q.Get(keySortDir),
		DateCol:  q.Get(keyDateCol),
		FromDate: q.Get(keyFromDate),
		ToDate:   q.Get(keyToDate),
		Flags: Flags{
			IsActive:    Status(q.Get(keyIsActive)),
			IsVerified:  Status(q.Get(keyIsVerified)),
			IsAvailable: Status(q.Get(keyIsAvailable)),
			IsPaid:      Status(q.Get(keyIsPaid)),
		},
		Deleted: q.Get(keyDeleted),
	}
}

const (
	keySortBy      = "sort_by"
	keySortDir     = "sort_dir"
	keyDateCol     = "date_col"
	keyFromDate    = "from_date"
	keyToDate      = "to_date"
	keyIsActive    = "is_active"
	keyIsVerified  = "is_verified"
	keyIsAvailable = "is_available"
	keyIsPaid      = "is_paid"
	keyDeleted     = "deleted_at"
)

// Values encodes the payload as query parameters for a list request.
func (p Payload) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set(keySortBy, p.SortBy)
	set(keySortDir, p.SortDir)
	set(keyDateCol, p.DateCol)
	set(keyFromDate, p.FromDate)
	set(keyToDate, p.ToDate)
	set(keyIsActive, string(p.IsActive))
	set(keyIsVerified, string(p.IsVerified))
	set(keyIsAvailable, string(p.IsAvailable))
	set(keyIsPaid, string(p.IsPaid))
	set(keyDeleted, p.Deleted)
	return v
}

// IsEmpty reports whether no filter is active.
func (p Payload) IsEmpty() bool {
	return p == Payload{}
}
