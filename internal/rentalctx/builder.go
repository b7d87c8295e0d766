// Package rentalctx derives a structured situational context from raw
// customer query text.
//
// Detection is keyword and pattern based: each concern scans an ordered list
// of (tag, keywords) buckets and the first matching bucket wins, with an
// explicit default when nothing matches. Caller-supplied overrides are merged
// last and take precedence over anything detected from the text.
package rentalctx

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fleetline/rentassist/internal/models"
)

// vehicleBucket pairs a vehicle type with its trigger keywords. Buckets are
// evaluated in declaration order; the first match wins.
type vehicleBucket struct {
	tag      models.VehicleType
	keywords []string
}

type priceBucket struct {
	tag      models.PriceRange
	keywords []string
}

type intentBucket struct {
	tag      models.Intent
	keywords []string
}

// seasonRange is an inclusive month/day range. Ranges may wrap across
// year-end (start > end), e.g. Dec 15 – Jan 31.
type seasonRange struct {
	startMonth, startDay int
	endMonth, endDay     int
}

var vehicleBuckets = []vehicleBucket{
	{models.VehicleCompact, []string{"compacto", "pequeño", "económico", "city car"}},
	{models.VehicleSedan, []string{"sedan", "mediano", "familiar"}},
	{models.VehicleSUV, []string{"suv", "todoterreno", "4x4", "camioneta"}},
	{models.VehicleLuxury, []string{"lujo", "premium", "alta gama"}},
	{models.VehicleVan, []string{"van", "furgoneta", "minivan"}},
}

var priceBuckets = []priceBucket{
	{models.PriceEconomic, []string{"económico", "barato", "bajo costo"}},
	{models.PriceMedium, []string{"medio", "estándar", "normal"}},
	{models.PricePremium, []string{"premium", "caro", "alto"}},
}

var intentBuckets = []intentBucket{
	{models.IntentQuote, []string{"precio", "costo", "tarifa", "cuánto cuesta"}},
	{models.IntentBooking, []string{"reservar", "alquilar", "rentar", "disponible"}},
	{models.IntentInfo, []string{"características", "especificaciones", "tiene"}},
	{models.IntentComplaint, []string{"problema", "queja", "reclamo", "mal"}},
	{models.IntentDamage, []string{"daño", "golpe", "accidente", "rayón"}},
}

// Season ranges are evaluated high, medium, low. Together they cover every
// calendar day except Feb 29; uncovered days fall back to low season.
var seasonRanges = []struct {
	tag    models.Season
	ranges []seasonRange
}{
	{models.SeasonHigh, []seasonRange{
		{12, 15, 1, 31}, // summer holidays, wraps year-end
		{7, 1, 7, 31},   // winter break
	}},
	{models.SeasonMedium, []seasonRange{
		{11, 1, 12, 14},
		{2, 1, 2, 28},
	}},
	{models.SeasonLow, []seasonRange{
		{3, 1, 6, 30},
		{8, 1, 10, 31},
	}},
}

var requirementKeywords = []struct {
	name     string
	keywords []string
}{
	{"gps", []string{"gps", "navegador", "navegación"}},
	{"child_seat", []string{"silla", "asiento", "niño", "bebé"}},
	{"additional_driver", []string{"conductor adicional", "segundo conductor"}},
	{"insurance", []string{"seguro", "cobertura"}},
	{"automatic", []string{"automático", "automática"}},
}

// Location patterns: pickup patterns are tried before return patterns and
// the first capturing match per slot wins.
var pickupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retirar en\s+(.+?)(?:\s+y\b|\s+hasta\b|$)`),
	regexp.MustCompile(`(?i)desde\s+(.+?)(?:\s+hasta\b|$)`),
}

var returnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)devolver en\s+(.+?)(?:\s+y\b|\s+desde\b|$)`),
	regexp.MustCompile(`(?i)hasta\s+(.+?)(?:\s+desde\b|$)`),
}

// Duration patterns in unit priority order: day before week before month.
// The first matching unit wins; later units are not consulted.
var durationPatterns = []struct {
	re   *regexp.Regexp
	days int
}{
	{regexp.MustCompile(`(?i)(\d+)\s*d(?:í|i)as?`), 1},
	{regexp.MustCompile(`(?i)(\d+)\s*semanas?`), 7},
	{regexp.MustCompile(`(?i)(\d+)\s*mes(?:es)?`), 30},
}

// Builder derives situational context records from query text.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a context builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderAt creates a context builder with a fixed clock, for callers that
// need deterministic season and weekend detection.
func NewBuilderAt(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// BuildContext derives a fully-populated situational context from the query
// text and merges any caller-supplied overrides last. It never fails: every
// field has a defined default.
func (b *Builder) BuildContext(query string, overrides map[string]string) models.SituationalContext {
	now := b.now()
	lower := strings.ToLower(query)

	ctx := models.SituationalContext{
		Timestamp:    now,
		VehicleType:  detectVehicleType(lower),
		PriceRange:   detectPriceRange(lower),
		Season:       SeasonFor(now),
		IsWeekend:    isWeekend(now),
		QueryIntent:  detectIntent(lower),
		Location:     extractLocation(query),
		Duration:     extractDuration(query),
		Requirements: extractRequirements(lower),
	}

	applyOverrides(&ctx, overrides)
	return ctx
}

// detectVehicleType returns the first vehicle bucket whose keywords appear in
// the query, or VehicleUnknown. A query may match several buckets textually;
// the first in declaration order wins.
func detectVehicleType(lower string) models.VehicleType {
	for _, b := range vehicleBuckets {
		if containsAny(lower, b.keywords) {
			return b.tag
		}
	}
	return models.VehicleUnknown
}

// detectPriceRange defaults to PriceMedium, unlike vehicle detection which
// has an explicit unknown value. Price is always needed for scoring, so an
// unstated preference is read as the standard band.
func detectPriceRange(lower string) models.PriceRange {
	for _, b := range priceBuckets {
		if containsAny(lower, b.keywords) {
			return b.tag
		}
	}
	return models.PriceMedium
}

func detectIntent(lower string) models.Intent {
	for _, b := range intentBuckets {
		if containsAny(lower, b.keywords) {
			return b.tag
		}
	}
	return models.IntentInfo
}

// SeasonFor maps a calendar date to the rental season. Uncovered days
// (only Feb 29) fall back to low season.
func SeasonFor(t time.Time) models.Season {
	month, day := int(t.Month()), t.Day()
	for _, s := range seasonRanges {
		for _, r := range s.ranges {
			if dateInRange(month, day, r) {
				return s.tag
			}
		}
	}
	return models.SeasonLow
}

// dateInRange checks month/day containment, handling ranges that wrap across
// year-end (start > end).
func dateInRange(month, day int, r seasonRange) bool {
	current := month*100 + day
	start := r.startMonth*100 + r.startDay
	end := r.endMonth*100 + r.endDay
	if start <= end {
		return current >= start && current <= end
	}
	return current >= start || current <= end
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func extractLocation(query string) models.LocationInfo {
	var loc models.LocationInfo
	for _, re := range pickupPatterns {
		if m := re.FindStringSubmatch(query); m != nil {
			loc.PickupLocation = strings.TrimSpace(m[1])
			break
		}
	}
	for _, re := range returnPatterns {
		if m := re.FindStringSubmatch(query); m != nil {
			loc.ReturnLocation = strings.TrimSpace(m[1])
			break
		}
	}
	return loc
}

func extractDuration(query string) models.DurationInfo {
	for _, p := range durationPatterns {
		if m := p.re.FindStringSubmatch(query); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return models.DurationInfo{DurationDays: n * p.days}
		}
	}
	return models.DurationInfo{}
}

// extractRequirements evaluates every flag independently; flags are not
// mutually exclusive.
func extractRequirements(lower string) models.SpecialRequirements {
	var req models.SpecialRequirements
	for _, r := range requirementKeywords {
		if !containsAny(lower, r.keywords) {
			continue
		}
		switch r.name {
		case "gps":
			req.GPS = true
		case "child_seat":
			req.ChildSeat = true
		case "additional_driver":
			req.AdditionalDriver = true
		case "insurance":
			req.Insurance = true
		case "automatic":
			req.Automatic = true
		}
	}
	return req
}

// applyOverrides merges caller-supplied values into the context, overwriting
// detected fields. Values are lower-cased before matching enum fields;
// unknown keys are ignored.
func applyOverrides(ctx *models.SituationalContext, overrides map[string]string) {
	for key, raw := range overrides {
		val := strings.ToLower(strings.TrimSpace(raw))
		switch key {
		case "vehicle_type":
			ctx.VehicleType = models.VehicleType(val)
		case "price_range":
			ctx.PriceRange = models.PriceRange(val)
		case "season":
			ctx.Season = models.Season(val)
		case "query_intent":
			ctx.QueryIntent = models.Intent(val)
		case "is_weekend":
			ctx.IsWeekend = val == "true"
		case "pickup_location":
			ctx.Location.PickupLocation = strings.TrimSpace(raw)
		case "return_location":
			ctx.Location.ReturnLocation = strings.TrimSpace(raw)
		case "duration_days":
			if n, err := strconv.Atoi(val); err == nil {
				ctx.Duration.DurationDays = n
			}
		case "gps":
			ctx.Requirements.GPS = val == "true"
		case "child_seat":
			ctx.Requirements.ChildSeat = val == "true"
		case "additional_driver":
			ctx.Requirements.AdditionalDriver = val == "true"
		case "insurance":
			ctx.Requirements.Insurance = val == "true"
		case "automatic":
			ctx.Requirements.Automatic = val == "true"
		}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
