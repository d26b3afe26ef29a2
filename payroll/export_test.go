package payroll_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func readCSV(t *testing.T, buf *bytes.Buffer) (header []string, rows [][]string) {
	t.Helper()
	all, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	return all[0], all[1:]
}

func column(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func TestWriteBreakdownCSV_DaysThenTotal(t *testing.T) {
	start, end := shift(3, 9, 17)
	p := period(march(generic.FirstHalf), payroll.VariantReceptionist, payroll.DailyRecord{
		Date: day(3), Start: start, End: end, BodySessions: d("2"),
	})
	b, err := payroll.Compute(p, payroll.RateCard{BodyRate: ptr("10"), PerHour: ptr("15")}, holidays(day(3)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, payroll.WriteBreakdownCSV(&buf, b))

	header, rows := readCSV(t, &buf)
	require.Len(t, rows, 16)
	pay := column(header, "pay")
	require.NotEqual(t, -1, pay)

	assert.Equal(t, "2025-03-03", rows[2][0])
	assert.Equal(t, "true", rows[2][column(header, "holiday")])
	assert.Equal(t, "9", rows[2][column(header, "total_hours")])
	assert.Equal(t, "155.00", rows[2][pay])
	assert.Equal(t, "0.00", rows[0][pay])

	total := rows[len(rows)-1]
	assert.Equal(t, "total", total[0])
	assert.Equal(t, "155.00", total[pay])
}

func TestWriteCashOutCSV_TotalRow(t *testing.T) {
	p := period(march(generic.SecondHalf), payroll.VariantStoreEmployee,
		payroll.DailyRecord{Date: day(17), Tips: d("10"), TotalCashOut: d("4.5")},
	)
	c, err := payroll.ComputeCashOut(p, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, payroll.WriteCashOutCSV(&buf, c))

	header, rows := readCSV(t, &buf)
	require.Len(t, rows, 17)
	total := rows[len(rows)-1]
	assert.Equal(t, "total", total[0])
	assert.Equal(t, "4.50", total[column(header, "cash")])
	assert.Equal(t, "9.00", total[column(header, "tips_payable")])
	assert.Equal(t, "13.50", total[column(header, "payable")])
}

func TestMoney_RoundsToCents(t *testing.T) {
	assert.Equal(t, "12.35", payroll.Money(d("12.345")))
	assert.Equal(t, "7.00", payroll.Money(d("7")))
}
