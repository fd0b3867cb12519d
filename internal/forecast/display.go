package forecast

import (
	"math"
	"strconv"
	"strings"

	"sales-forecast/internal/models"
)

// Round2 rounds half away from zero to two decimals, as shown to users.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatSales renders a forecast the way the dashboard shows it, for example
// "Item_Outlet_Sales = R$ 1,234.56".
func FormatSales(v float64) string {
	return "Item_Outlet_Sales = R$ " + groupThousands(strconv.FormatFloat(Round2(v), 'f', 2, 64))
}

// Present shapes a single prediction for API callers.
func Present(res *models.PredictionResult) models.SingleResponse {
	return models.SingleResponse{
		ItemOutletSales:        res.ItemOutletSales,
		ItemOutletSalesRounded: Round2(res.ItemOutletSales),
		Display:                FormatSales(res.ItemOutletSales),
		Outlet:                 res.Record.Profile,
	}
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
