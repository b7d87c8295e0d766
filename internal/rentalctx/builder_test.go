package rentalctx

import (
	"testing"
	"time"

	"github.com/fleetline/rentassist/internal/models"
)

func fixedBuilder(t time.Time) *Builder {
	return NewBuilderAt(func() time.Time { return t })
}

// A Wednesday in low season.
var baseDate = time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC)

func TestBuildContextIsTotal(t *testing.T) {
	b := fixedBuilder(baseDate)
	ctx := b.BuildContext("", nil)

	if ctx.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}
	if ctx.VehicleType != models.VehicleUnknown {
		t.Errorf("expected unknown vehicle type, got %q", ctx.VehicleType)
	}
	if ctx.PriceRange != models.PriceMedium {
		t.Errorf("expected default medium price range, got %q", ctx.PriceRange)
	}
	if ctx.Season != models.SeasonLow {
		t.Errorf("expected low season for April, got %q", ctx.Season)
	}
	if ctx.QueryIntent != models.IntentInfo {
		t.Errorf("expected default info intent, got %q", ctx.QueryIntent)
	}
	if ctx.IsWeekend {
		t.Error("Wednesday should not be weekend")
	}
}

func TestDetectVehicleType(t *testing.T) {
	b := fixedBuilder(baseDate)
	cases := []struct {
		query string
		want  models.VehicleType
	}{
		{"busco un suv para la montaña", models.VehicleSUV},
		{"necesito una camioneta 4x4", models.VehicleSUV},
		{"un auto compacto por favor", models.VehicleCompact},
		{"sedan familiar para 5 personas", models.VehicleSedan},
		{"algo de lujo para el evento", models.VehicleLuxury},
		{"una furgoneta para la mudanza", models.VehicleVan},
		{"cualquier cosa sirve", models.VehicleUnknown},
	}
	for _, tc := range cases {
		if got := b.BuildContext(tc.query, nil).VehicleType; got != tc.want {
			t.Errorf("vehicle type for %q = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestDetectVehicleTypeFirstMatchWins(t *testing.T) {
	b := fixedBuilder(baseDate)
	// "económico" matches the compact bucket before the economic price bucket
	// can say anything about vehicles, and before luxury's "premium".
	ctx := b.BuildContext("un coche económico premium", nil)
	if ctx.VehicleType != models.VehicleCompact {
		t.Errorf("expected compact (first bucket in order), got %q", ctx.VehicleType)
	}
}

func TestDetectPriceRange(t *testing.T) {
	b := fixedBuilder(baseDate)
	cases := []struct {
		query string
		want  models.PriceRange
	}{
		{"algo barato por favor", models.PriceEconomic},
		{"un precio estándar está bien", models.PriceMedium},
		{"quiero lo más caro que tengan", models.PricePremium},
		{"sin preferencia", models.PriceMedium}, // default, not unknown
	}
	for _, tc := range cases {
		if got := b.BuildContext(tc.query, nil).PriceRange; got != tc.want {
			t.Errorf("price range for %q = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestSeasonFor(t *testing.T) {
	cases := []struct {
		date time.Time
		want models.Season
	}{
		{time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), models.SeasonHigh},   // wraps from Dec 15
		{time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), models.SeasonHigh},  // wrap start boundary
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), models.SeasonHigh},   // wrap end boundary
		{time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), models.SeasonHigh},   // winter break
		{time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), models.SeasonMedium},
		{time.Date(2024, 12, 14, 0, 0, 0, 0, time.UTC), models.SeasonMedium},
		{time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), models.SeasonMedium},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), models.SeasonLow},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), models.SeasonLow},
		{time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC), models.SeasonLow},
	}
	for _, tc := range cases {
		if got := SeasonFor(tc.date); got != tc.want {
			t.Errorf("SeasonFor(%s) = %q, want %q", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestSeasonRangesExhaustive(t *testing.T) {
	// Every day of a non-leap year must land in a defined range without
	// relying on the low-season fallback. Feb 29 is the single known gap.
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 365; d++ {
		date := start.AddDate(0, 0, d)
		month, day := int(date.Month()), date.Day()
		covered := false
		for _, s := range seasonRanges {
			for _, r := range s.ranges {
				if dateInRange(month, day, r) {
					covered = true
				}
			}
		}
		if !covered {
			t.Errorf("date %s not covered by any season range", date.Format("01-02"))
		}
	}
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2024, 4, 6, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 4, 7, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 4, 8, 12, 0, 0, 0, time.UTC)

	if !fixedBuilder(saturday).BuildContext("hola", nil).IsWeekend {
		t.Error("Saturday should be weekend")
	}
	if !fixedBuilder(sunday).BuildContext("hola", nil).IsWeekend {
		t.Error("Sunday should be weekend")
	}
	if fixedBuilder(monday).BuildContext("hola", nil).IsWeekend {
		t.Error("Monday should not be weekend")
	}
}

func TestDetectIntent(t *testing.T) {
	b := fixedBuilder(baseDate)
	cases := []struct {
		query string
		want  models.Intent
	}{
		{"¿cuánto cuesta por día?", models.IntentQuote},
		{"quiero alquilar un auto", models.IntentBooking},
		{"¿qué características tiene el sedan?", models.IntentInfo},
		{"tengo una queja del servicio", models.IntentComplaint},
		{"hubo un accidente con el auto", models.IntentDamage},
		{"hola buenas tardes", models.IntentInfo}, // default
	}
	for _, tc := range cases {
		if got := b.BuildContext(tc.query, nil).QueryIntent; got != tc.want {
			t.Errorf("intent for %q = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestExtractLocation(t *testing.T) {
	b := fixedBuilder(baseDate)

	ctx := b.BuildContext("quiero retirar en Aeropuerto Ezeiza y devolver en Palermo", nil)
	if ctx.Location.PickupLocation != "Aeropuerto Ezeiza" {
		t.Errorf("pickup = %q, want %q", ctx.Location.PickupLocation, "Aeropuerto Ezeiza")
	}
	if ctx.Location.ReturnLocation != "Palermo" {
		t.Errorf("return = %q, want %q", ctx.Location.ReturnLocation, "Palermo")
	}

	ctx = b.BuildContext("viajo desde Córdoba hasta Mendoza", nil)
	if ctx.Location.PickupLocation != "Córdoba" {
		t.Errorf("pickup = %q, want %q", ctx.Location.PickupLocation, "Córdoba")
	}
	if ctx.Location.ReturnLocation != "Mendoza" {
		t.Errorf("return = %q, want %q", ctx.Location.ReturnLocation, "Mendoza")
	}

	ctx = b.BuildContext("necesito un auto económico", nil)
	if ctx.Location.PickupLocation != "" || ctx.Location.ReturnLocation != "" {
		t.Errorf("expected no locations, got %+v", ctx.Location)
	}
}

func TestExtractDuration(t *testing.T) {
	b := fixedBuilder(baseDate)
	cases := []struct {
		query string
		want  int
	}{
		{"por 3 días", 3},
		{"por 1 día", 1},
		{"durante 2 semanas", 14},
		{"alquiler por 1 mes", 30},
		{"sin fecha definida", 0},
	}
	for _, tc := range cases {
		if got := b.BuildContext(tc.query, nil).Duration.DurationDays; got != tc.want {
			t.Errorf("duration for %q = %d days, want %d", tc.query, got, tc.want)
		}
	}
}

func TestExtractDurationFirstUnitWins(t *testing.T) {
	b := fixedBuilder(baseDate)
	// Day is the most specific unit and is consulted first; a query that also
	// mentions weeks keeps the day figure.
	ctx := b.BuildContext("serían 3 días, o quizás 2 semanas", nil)
	if ctx.Duration.DurationDays != 3 {
		t.Errorf("expected day match to win, got %d days", ctx.Duration.DurationDays)
	}
}

func TestExtractRequirements(t *testing.T) {
	b := fixedBuilder(baseDate)
	ctx := b.BuildContext("necesito GPS, una silla para bebé y seguro completo", nil)

	req := ctx.Requirements
	if !req.GPS || !req.ChildSeat || !req.Insurance {
		t.Errorf("expected gps/child_seat/insurance set, got %+v", req)
	}
	if req.AdditionalDriver || req.Automatic {
		t.Errorf("unexpected flags set: %+v", req)
	}
}

func TestOverridesWinLast(t *testing.T) {
	b := fixedBuilder(baseDate)
	ctx := b.BuildContext("busco un compacto barato", map[string]string{
		"vehicle_type": "SUV",
		"season":       "high",
		"price_range":  "medium",
		"duration_days": "5",
	})

	if ctx.VehicleType != models.VehicleSUV {
		t.Errorf("override should win: vehicle_type = %q", ctx.VehicleType)
	}
	if ctx.Season != models.SeasonHigh {
		t.Errorf("override should win: season = %q", ctx.Season)
	}
	if ctx.PriceRange != models.PriceMedium {
		t.Errorf("override should win: price_range = %q", ctx.PriceRange)
	}
	if ctx.Duration.DurationDays != 5 {
		t.Errorf("override should win: duration_days = %d", ctx.Duration.DurationDays)
	}
}

func TestOverridesUnknownKeysIgnored(t *testing.T) {
	b := fixedBuilder(baseDate)
	ctx := b.BuildContext("un suv", map[string]string{"favorite_color": "rojo"})
	if ctx.VehicleType != models.VehicleSUV {
		t.Errorf("unknown override key must not disturb detection, got %q", ctx.VehicleType)
	}
}
