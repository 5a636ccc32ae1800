package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberPattern = regexp.MustCompile(`^ORD\d{14}\d{6}$`)

func TestGenerateOrderNumber_Format(t *testing.T) {
	n := GenerateOrderNumber()
	assert.Regexp(t, orderNumberPattern, n)
	assert.Len(t, n, 3+14+6)
}

func TestGenerateOrderNumber_TimestampComponent(t *testing.T) {
	before := time.Now()
	n := GenerateOrderNumber()

	ts, err := time.ParseInLocation("20060102150405", n[3:17], time.Local)
	require.NoError(t, err)
	assert.WithinDuration(t, before, ts, 2*time.Second)
}

func TestGenerateOrderNumber_SortableAcrossSeconds(t *testing.T) {
	// Numbers generated in later seconds compare greater as strings.
	a := "ORD20240101000000123456"
	b := "ORD20240101000001000000"
	assert.Less(t, a, b)
}
