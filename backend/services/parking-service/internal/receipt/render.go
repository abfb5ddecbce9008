package receipt

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"parkinglot/backend/services/parking-service/internal/models"
)

// Layout controls how a printed receipt looks.
type Layout struct {
	Title    string
	Currency string
	Location *time.Location
}

const timeLayout = "Jan 2, 2006, 3:04 PM"

// Render writes a plain-text receipt for the entry.
func Render(w io.Writer, entry *models.ParkingEntry, layout Layout) error {
	loc := layout.Location
	if loc == nil {
		loc = time.UTC
	}
	title := layout.Title
	if title == "" {
		title = "PARKING RECEIPT"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, title)
	fmt.Fprintln(tw, strings.Repeat("-", len(title)))
	fmt.Fprintf(tw, "Receipt:\t%s\n", entry.ReceiptID)
	fmt.Fprintf(tw, "Vehicle:\t%s\n", entry.VehicleNumber)
	fmt.Fprintf(tw, "Type:\t%s\n", entry.VehicleTypeName())
	fmt.Fprintf(tw, "Entry:\t%s\n", entry.EntryTime.In(loc).Format(timeLayout))
	if entry.IsPickAndGo {
		fmt.Fprintf(tw, "Pick&Go:\t%s\n", "yes")
	}

	if entry.ExitTime == nil {
		fmt.Fprintf(tw, "Exit:\t%s\n", "-")
		fmt.Fprintf(tw, "Duration:\t%s\n", "Ongoing")
	} else {
		fmt.Fprintf(tw, "Exit:\t%s\n", entry.ExitTime.In(loc).Format(timeLayout))
		fmt.Fprintf(tw, "Duration:\t%s\n", FormatDuration(entry.ExitTime.Sub(entry.EntryTime)))
		amount := 0.0
		if entry.TotalAmount != nil {
			amount = *entry.TotalAmount
		}
		fmt.Fprintf(tw, "Amount:\t%s\n", FormatAmount(amount, layout.Currency))
	}
	return tw.Flush()
}

// FormatAmount renders an amount with two decimals and an optional currency code.
func FormatAmount(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

// FormatDuration renders a stay in the largest whole unit, rounding up.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d <= time.Minute:
		return plural(ceilDiv(d, time.Second), "second")
	case d <= time.Hour:
		return plural(ceilDiv(d, time.Minute), "minute")
	case d <= 24*time.Hour:
		return plural(ceilDiv(d, time.Hour), "hour")
	default:
		return plural(ceilDiv(d, 24*time.Hour), "day")
	}
}

func ceilDiv(d, unit time.Duration) int64 {
	return int64((d + unit - 1) / unit)
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
