package commands

import (
	"errors"
	"strings"

	"github.com/bebeku/farm/internal/domain/models"
)

var usages = map[models.CommandType]models.AutomationReply{
	models.CommandDaily: {
		Title:   "/harian",
		Message: "/harian <batch> <mati> <pakan_pagi_kg> <pakan_sore_kg> [penyebab]\ncontoh: /harian B-2026-001 3 40 35,5 cuaca panas",
	},
	models.CommandEggs: {
		Title:   "/telur",
		Message: "/telur <batch> <total> [baik rusak kecil]\ncontoh: /telur B-2026-001 1200 1150 30 20",
	},
	models.CommandWeight: {
		Title:   "/timbang",
		Message: "/timbang <batch> <gram> [sampel]\ncontoh: /timbang B-2026-001 1450 10",
	},
	models.CommandIncome: {
		Title:   "/masuk",
		Message: "/masuk <jumlah> <kategori> [batch]\ncontoh: /masuk 2,5jt penjualan_telur B-2026-001",
	},
	models.CommandExpense: {
		Title:   "/keluar",
		Message: "/keluar <jumlah> <kategori> [batch]\ncontoh: /keluar 1.500.000 pakan",
	},
	models.CommandStatus: {
		Title:   "/status",
		Message: "/status - ringkasan peternakan hari ini",
	},
	models.CommandAlerts: {
		Title:   "/peringatan",
		Message: "/peringatan - daftar peringatan aktif",
	},
}

var helpOrder = []models.CommandType{
	models.CommandDaily, models.CommandEggs, models.CommandWeight,
	models.CommandIncome, models.CommandExpense, models.CommandStatus, models.CommandAlerts,
}

// UsageError carries the usage hint for a malformed command.
type UsageError struct {
	Reply models.AutomationReply
}

func (e *UsageError) Error() string {
	return "format salah, gunakan:\n" + e.Reply.Message
}

// Unwrap lets errors.Is match ErrInvalidArguments.
func (e *UsageError) Unwrap() error { return ErrInvalidArguments }

func invalid(cmd models.CommandType) error {
	return &UsageError{Reply: usages[cmd]}
}

// Usage returns the usage hint carried by err, if any.
func Usage(err error) (models.AutomationReply, bool) {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Reply, true
	}
	return models.AutomationReply{}, false
}

// HelpText lists every command.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Perintah BEBEKU:")
	for _, t := range helpOrder {
		b.WriteString("\n\n")
		b.WriteString(usages[t].Message)
	}
	b.WriteString("\n\nPesan tanpa / dijawab oleh asisten.")
	return b.String()
}
