package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous zero-values are clamped to safe defaults. Other validation errors
// are logged as warnings but do not prevent startup; delivery settings are
// checked separately per sink when one is selected.
func (c *Config) Validate() []error {
	var errs []error

	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("api_url %q is not a valid URL: %w", c.APIURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("api_url scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.APIKey != "" {
		for _, r := range c.APIKey {
			if unicode.IsControl(r) {
				errs = append(errs, fmt.Errorf("api_key contains control characters"))
				break
			}
		}
	}

	// Clamp the scan timeout: a stalled package manager must not stall the
	// whole agent, and a zero timeout would cancel the scan immediately.
	if c.ScanTimeoutSeconds < 5 {
		errs = append(errs, fmt.Errorf("scan_timeout_seconds %d is below minimum 5, clamping", c.ScanTimeoutSeconds))
		c.ScanTimeoutSeconds = 5
	} else if c.ScanTimeoutSeconds > 600 {
		errs = append(errs, fmt.Errorf("scan_timeout_seconds %d exceeds maximum 600, clamping", c.ScanTimeoutSeconds))
		c.ScanTimeoutSeconds = 600
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.OutputFormat != "" && c.OutputFormat != "json" && c.OutputFormat != "yaml" {
		errs = append(errs, fmt.Errorf("output_format %q is not valid (use json or yaml)", c.OutputFormat))
	}

	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}

// ValidateAPIDelivery checks that API delivery settings are complete.
func (c *Config) ValidateAPIDelivery() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required for API delivery")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required for API delivery")
	}
	return nil
}

// ValidateS3Delivery checks that S3 delivery settings are complete.
func (c *Config) ValidateS3Delivery() error {
	if c.S3Bucket == "" {
		return fmt.Errorf("s3_bucket is required for S3 delivery")
	}
	if c.S3Region == "" {
		return fmt.Errorf("s3_region is required for S3 delivery")
	}
	return nil
}
