package domain

import (
	"context"
	"log/slog"
)

// EnrichWithSite sets SiteName and SiteAddress on rec by reverse geocoding
// its transmitter coordinates. Records at the origin (no usable siting data)
// and records whose lookup fails are returned unchanged.
func EnrichWithSite(ctx context.Context, rec NormalizedRecord, geocoder Geocoder, logger *slog.Logger) NormalizedRecord {
	if geocoder == nil {
		return rec
	}
	if rec.Latitude == 0 && rec.Longitude == 0 {
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Latitude, rec.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"serial", rec.AgencySerial,
			"lat", rec.Latitude,
			"lon", rec.Longitude,
			"error", err,
		)
		return rec
	}
	if result.FormattedAddress == "" {
		return rec
	}
	rec.SiteName = result.PlaceName
	rec.SiteAddress = result.FormattedAddress
	return rec
}
