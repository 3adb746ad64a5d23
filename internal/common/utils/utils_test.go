package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingNo(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 5, 0, time.UTC)
	no := GenerateBookingNo(now)

	assert.Regexp(t, regexp.MustCompile(`^BK20250310143005[A-HJ-NP-Z2-9]{4}$`), no)
	assert.Len(t, GenerateBookingNo(now), len(no))
}

func TestGenerateRandomNumber(t *testing.T) {
	code := GenerateRandomNumber(6)
	assert.Len(t, code, 6)
	assert.Regexp(t, `^\d{6}$`, code)
}

func TestMasking(t *testing.T) {
	assert.Equal(t, "a***@example.com", MaskEmail("alice@example.com"))
	assert.Equal(t, "invalid", MaskEmail("invalid"))
	assert.Equal(t, "*******678", MaskPhone("0912345678"))
	assert.Equal(t, "12", MaskPhone("12"))
	assert.Equal(t, "guest@example.com", NormalizeEmail("  Guest@Example.COM "))
}

func TestContainsAndUnique(t *testing.T) {
	assert.True(t, Contains([]string{"reserved", "active"}, "active"))
	assert.False(t, Contains([]string{"reserved", "active"}, "deleted"))
	assert.Equal(t, []int{1, 2, 3}, Unique([]int{1, 2, 1, 3, 2}))
}

func TestPagination(t *testing.T) {
	p := &Pagination{Page: 0, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 0, p.GetOffset())

	p = &Pagination{Page: 3, PageSize: 20}
	p.Normalize()
	assert.Equal(t, 40, p.GetOffset())
	assert.Equal(t, 20, p.GetLimit())
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Friday, d.Weekday())
	assert.Equal(t, "2025-03-14", FormatDate(d))

	_, err = ParseDate("2025/03/14")
	assert.Error(t, err)
	_, err = ParseDate("2025-02-30")
	assert.Error(t, err)
}

func TestDateOf(t *testing.T) {
	taipei := time.FixedZone("CST", 8*3600)
	// UTC 16:30 在台北已是隔天
	instant := time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-11", FormatDate(DateOf(instant, taipei)))
	assert.Equal(t, "2025-03-10", FormatDate(DateOf(instant, time.UTC)))
}

func TestEachNight(t *testing.T) {
	in, _ := ParseDate("2025-03-30")
	out, _ := ParseDate("2025-04-02")

	nights := EachNight(in, out)
	require.Len(t, nights, 3)
	assert.Equal(t, "2025-03-30", FormatDate(nights[0]))
	assert.Equal(t, "2025-04-01", FormatDate(nights[2]))
	assert.Equal(t, 3, DaysBetween(in, out))

	assert.Empty(t, EachNight(out, in))
	assert.Empty(t, EachNight(in, in))
}

func TestNormalizeTime(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	in := time.Date(2025, 3, 10, 9, 0, 0, 999, loc)
	got := NormalizeTime(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Nanosecond())
	assert.True(t, got.Equal(in.Truncate(time.Second)))
}
