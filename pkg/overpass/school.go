package overpass

import (
	"math"
	"strings"
)

const earthRadiusM = 6_371_000

// haversineM is the great-circle distance between two WGS84 points in metres.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// schoolType derives a readable type from OSM school tags.
func schoolType(tags map[string]string) string {
	kind := strings.ToLower(tags["school:type"])
	phase := schoolPhase(strings.ToLower(tags["school"]), tags["isced:level"])

	switch {
	case strings.ToLower(tags["school:selective"]) == "yes":
		return "Grammar School"
	case kind == "free":
		return "Free School"
	case kind == "academy":
		if phase != "" {
			return phase + " Academy"
		}
		return "Academy"
	case strings.ToLower(tags["operator:type"]) == "private":
		return "Independent School"
	case kind == "community":
		if phase != "" {
			return "Community " + phase
		}
		return "Community School"
	case phase != "":
		return phase
	default:
		return "School"
	}
}

func schoolPhase(school, isced string) string {
	switch {
	case school == "primary":
		return "Primary"
	case school == "secondary":
		return "Secondary"
	case strings.ContainsAny(isced, "01"):
		return "Primary"
	case strings.ContainsAny(isced, "23"):
		return "Secondary"
	default:
		return ""
	}
}

// phaseOrder sorts primary (0) before secondary (1) before anything else (2).
func phaseOrder(tags map[string]string) int {
	school := strings.ToLower(tags["school"])
	isced := tags["isced:level"]
	switch {
	case strings.Contains(school, "primary"),
		strings.Contains(isced, "0"),
		strings.Contains(isced, "1") && !strings.Contains(isced, "2"):
		return 0
	case strings.Contains(school, "secondary"), strings.ContainsAny(isced, "23"):
		return 1
	default:
		return 2
	}
}
