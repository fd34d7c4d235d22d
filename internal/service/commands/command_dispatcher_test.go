package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository/memory"
	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/records"
)

var cmdNow = time.Date(2026, 6, 15, 3, 0, 0, 0, time.UTC)

func newDispatcher(t *testing.T) (*Service, *records.Service) {
	t.Helper()
	store := memory.New()
	clock := func() time.Time { return cmdNow }
	rec := records.NewService(store, nil, records.WithClock(clock))
	agg := aggregation.NewService(store, aggregation.DefaultPolicy(), nil,
		aggregation.WithClock(clock), aggregation.WithLocation(time.UTC))

	_, err := rec.CreateBatch(context.Background(), records.BatchInput{
		Name: "Batch Juni", StartDate: cmdNow.AddDate(0, 0, -20), InitialPopulation: 1000,
	})
	require.NoError(t, err)
	return NewService(rec, agg, nil), rec
}

func run(t *testing.T, d *Service, text string) (string, error) {
	t.Helper()
	return d.HandleCommand(context.Background(), models.ParseCommand(text), "628111")
}

func TestDailyCommand(t *testing.T) {
	d, _ := newDispatcher(t)

	reply, err := run(t, d, "/harian b-2026-001 3 40 35,5 Cuaca Panas")
	require.NoError(t, err)
	assert.Equal(t, "Data harian B-2026-001 tersimpan: 3 ekor mati, pakan 75.5 kg. Populasi sekarang 997 ekor.", reply)

	reply, err = run(t, d, "/harian B-2026-001 10 40 40")
	require.NoError(t, err)
	assert.Contains(t, reply, "Populasi sekarang 987 ekor")
	assert.Contains(t, reply, "PERHATIAN")
}

func TestEggAndWeightCommands(t *testing.T) {
	d, _ := newDispatcher(t)

	reply, err := run(t, d, "/telur B-2026-001 1200 1150 30 20")
	require.NoError(t, err)
	assert.Equal(t, "Produksi telur B-2026-001 tersimpan: 1.200 butir (baik 1.150, rusak 30, kecil 20).", reply)

	reply, err = run(t, d, "/telur B-2026-001 500")
	require.NoError(t, err)
	assert.Contains(t, reply, "baik 500")

	reply, err = run(t, d, "/timbang B-2026-001 1450")
	require.NoError(t, err)
	assert.Equal(t, "Penimbangan B-2026-001 tersimpan: rata-rata 1450 g dari 10 sampel, umur 20 hari.", reply)
}

func TestFinanceCommands(t *testing.T) {
	d, _ := newDispatcher(t)

	reply, err := run(t, d, "/keluar 1.500.000 Pakan")
	require.NoError(t, err)
	assert.Equal(t, "Pengeluaran pakan Rp 1.500.000 tercatat.", reply)

	reply, err = run(t, d, "/masuk 2,5jt penjualan_telur B-2026-001")
	require.NoError(t, err)
	assert.Equal(t, "Pemasukan penjualan_telur Rp 2.500.000 tercatat untuk B-2026-001.", reply)

	status, err := run(t, d, "/status")
	require.NoError(t, err)
	assert.Contains(t, status, "Batch aktif: 1")
	assert.Contains(t, status, "masuk Rp 2.500.000, keluar Rp 1.500.000, laba Rp 1.000.000")
}

func TestCommandErrors(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := run(t, d, "/harian B-2026-001 tiga 40 35")
	require.ErrorIs(t, err, ErrInvalidArguments)
	usage, ok := Usage(err)
	require.True(t, ok)
	assert.Equal(t, "/harian", usage.Title)

	_, err = run(t, d, "/telur")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = run(t, d, "/harian B-2030-001 1 1 1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = run(t, d, "/harian B-2026-001 -1 1 1")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = run(t, d, "/panen B-2026-001")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestAlertsAndHelp(t *testing.T) {
	d, _ := newDispatcher(t)

	reply, err := run(t, d, "/peringatan")
	require.NoError(t, err)
	assert.Equal(t, "Tidak ada peringatan.", reply)

	_, err = run(t, d, "/harian B-2026-001 120 10 10")
	require.NoError(t, err)
	reply, err = run(t, d, "/alerts")
	require.NoError(t, err)
	assert.Contains(t, reply, "1 peringatan:")
	assert.Contains(t, reply, "[TINGGI]")

	help, err := run(t, d, "/bantuan")
	require.NoError(t, err)
	for _, c := range []string{"/harian", "/telur", "/timbang", "/masuk", "/keluar", "/status", "/peringatan"} {
		assert.Contains(t, help, c)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"1500000":   1_500_000,
		"1.500.000": 1_500_000,
		"Rp150.000": 150_000,
		"2,5jt":     2_500_000,
		"750rb":     750_000,
		"20k":       20_000,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAmount("banyak")
	assert.Error(t, err)
}
