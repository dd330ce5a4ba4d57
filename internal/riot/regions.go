package riot

import (
	"errors"
	"fmt"
	"strings"
)

var validPlatformRegions = map[string]struct{}{
	"br1": {}, "eun1": {}, "euw1": {}, "jp1": {}, "kr": {},
	"la1": {}, "la2": {}, "me1": {}, "na1": {}, "oc1": {},
	"ph2": {}, "ru": {}, "sg2": {}, "th2": {}, "tr1": {},
	"tw2": {}, "vn2": {},
}

func NormalizePlatformRegion(region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	if _, ok := validPlatformRegions[region]; ok {
		return region
	}
	return ""
}

// PlatformContinent maps a platform region onto the continental routing
// host used by the account and match endpoints.
func PlatformContinent(region string) string {
	switch NormalizePlatformRegion(region) {
	case "br1", "la1", "la2", "na1", "oc1":
		return "americas"
	case "jp1", "kr":
		return "asia"
	case "euw1", "eun1", "me1", "ru", "tr1":
		return "europe"
	case "ph2", "sg2", "th2", "tw2", "vn2":
		return "sea"
	default:
		return ""
	}
}

func requirePlatformRegion(platformRegion string) (string, error) {
	if region := NormalizePlatformRegion(platformRegion); region != "" {
		return region, nil
	}
	return "", fmt.Errorf("platform region %q is not supported", platformRegion)
}

func requireContinent(platformRegion string) (string, error) {
	if continent := PlatformContinent(platformRegion); continent != "" {
		return continent, nil
	}
	return "", fmt.Errorf("no continental route for platform region %q", platformRegion)
}

func requireNonEmpty(name, value string) (string, error) {
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%s is required", name)
}

var (
	ErrRiotIDRequired = errors.New("riot id is required")
	ErrInvalidRiotID  = errors.New("riot id must be in format nickname#tagline")
)

func SplitRiotID(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrRiotIDRequired
	}
	idx := strings.LastIndex(raw, "#")
	if idx <= 0 || idx >= len(raw)-1 {
		return "", "", ErrInvalidRiotID
	}
	gameName := strings.TrimSpace(raw[:idx])
	tagLine := strings.TrimSpace(raw[idx+1:])
	if gameName == "" || tagLine == "" {
		return "", "", ErrInvalidRiotID
	}
	return gameName, tagLine, nil
}

func FormatRiotID(gameName, tagLine string) string {
	return fmt.Sprintf("%s#%s", strings.TrimSpace(gameName), strings.TrimPrefix(strings.TrimSpace(tagLine), "#"))
}
