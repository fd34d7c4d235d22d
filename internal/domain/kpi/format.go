package kpi

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a whole-rupiah amount with Indonesian digit grouping, e.g. "Rp 1.500.000".
func FormatRupiah(amount float64) string {
	return idPrinter.Sprintf("Rp %d", int64(Round(amount, 0)))
}

// FormatNumber renders an integer with Indonesian digit grouping.
func FormatNumber(n int) string {
	return idPrinter.Sprintf("%d", n)
}

// FormatQty renders a quantity with the shortest exact decimal form, e.g. 12.5 or 0.
func FormatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
