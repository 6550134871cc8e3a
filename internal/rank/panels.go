package rank

import (
	"fmt"

	"jobmarket-engine/internal/domain"
)

const DashboardTitle = "Job Market Analysis Dashboard"

// Panel is one titled table handed to a chart renderer.
type Panel struct {
	Title string         `json:"title"`
	Rows  []domain.Count `json:"rows"`
}

// Panels lays the report out as the four dashboard panels.
func Panels(r domain.Report, lim Limits) []Panel {
	return []Panel{
		{Title: fmt.Sprintf("Top %d Job Titles", lim.Titles), Rows: r.Titles},
		{Title: fmt.Sprintf("Top %d Skills in Demand", lim.Skills), Rows: r.Skills},
		{Title: fmt.Sprintf("Top %d Hiring Cities", lim.Cities), Rows: r.Cities},
		{Title: fmt.Sprintf("Top %d Hiring Companies", lim.Companies), Rows: r.Companies},
	}
}
