package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/expiry"
	"github.com/rcliao/expiry-tracker/internal/model"
)

// productView is a product with its classification at output time.
type productView struct {
	model.Product
	Status expiry.Status `json:"status"`
}

func views(products []model.Product, now time.Time) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{Product: p, Status: expiry.Classify(p.ExpirationDate, now)})
	}
	return out
}

var severityMark = map[expiry.Severity]string{
	expiry.SeverityError:   "!!",
	expiry.SeverityWarning: "! ",
	expiry.SeverityInfo:    "  ",
	expiry.SeveritySuccess: "  ",
}

func writeTable(w io.Writer, list []productView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  \tID\tNAME\tCATEGORY\tEXPIRES\tSTATUS")
	for _, v := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			severityMark[v.Status.Severity], v.ID, v.Name, v.Category,
			v.ExpirationDate.Format(dates.Layout), v.Status.Label)
	}
	tw.Flush()
}
