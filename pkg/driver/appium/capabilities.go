package appium

import (
	"strings"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// vendorPrefix marks non-standard capabilities for the Appium server.
const vendorPrefix = "appium:"

// Capabilities are the session capabilities the harness understands.
// Anything else is rejected when the configuration is loaded.
type Capabilities struct {
	PlatformName      string `yaml:"platformName" split_words:"true"`
	AutomationName    string `yaml:"automationName" split_words:"true"`
	DeviceName        string `yaml:"deviceName" split_words:"true"`
	UDID              string `yaml:"udid"`
	PlatformVersion   string `yaml:"platformVersion" split_words:"true"`
	Language          string `yaml:"language"`
	Locale            string `yaml:"locale"`
	NoReset           bool   `yaml:"noReset" split_words:"true"`
	AutoLaunch        bool   `yaml:"autoLaunch" split_words:"true"`
	AppPackage        string `yaml:"appPackage" split_words:"true"`
	AppActivity       string `yaml:"appActivity" split_words:"true"`
	BundleID          string `yaml:"bundleId" split_words:"true"`
	NewCommandTimeout int    `yaml:"newCommandTimeout" split_words:"true"` // seconds
}

// DefaultCapabilities returns an Android UiAutomator2 session that keeps
// app data between sessions and leaves launching to the test.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		PlatformName:   "Android",
		AutomationName: "UiAutomator2",
		DeviceName:     "Android",
		NoReset:        true,
		AutoLaunch:     false,
	}
}

// IsIOS reports whether the capabilities target an iOS device.
func (c Capabilities) IsIOS() bool {
	return strings.EqualFold(c.PlatformName, "ios")
}

// AppID returns the application under test: the bundle ID on iOS, the
// package name elsewhere.
func (c Capabilities) AppID() string {
	if c.IsIOS() && c.BundleID != "" {
		return c.BundleID
	}
	if c.AppPackage != "" {
		return c.AppPackage
	}
	return c.BundleID
}

// Validate checks the fields a session cannot be created without.
func (c Capabilities) Validate() error {
	if c.PlatformName == "" {
		return core.ErrInvalidConfig.WithMessage("capabilities: platformName is required")
	}
	if c.AutomationName == "" {
		return core.ErrInvalidConfig.WithMessage("capabilities: automationName is required")
	}
	if c.NewCommandTimeout < 0 {
		return core.ErrInvalidConfig.WithMessagef("capabilities: newCommandTimeout must not be negative, got %d", c.NewCommandTimeout)
	}
	return nil
}

// W3C returns the capabilities as an alwaysMatch object. Empty strings
// are left out so the server applies its own defaults.
func (c Capabilities) W3C() map[string]interface{} {
	caps := map[string]interface{}{
		"platformName":              c.PlatformName,
		vendorPrefix + "noReset":    c.NoReset,
		vendorPrefix + "autoLaunch": c.AutoLaunch,
	}
	optional := []struct {
		key   string
		value string
	}{
		{"automationName", c.AutomationName},
		{"deviceName", c.DeviceName},
		{"udid", c.UDID},
		{"platformVersion", c.PlatformVersion},
		{"language", c.Language},
		{"locale", c.Locale},
		{"appPackage", c.AppPackage},
		{"appActivity", c.AppActivity},
		{"bundleId", c.BundleID},
	}
	for _, o := range optional {
		if o.value != "" {
			caps[vendorPrefix+o.key] = o.value
		}
	}
	if c.NewCommandTimeout > 0 {
		caps[vendorPrefix+"newCommandTimeout"] = c.NewCommandTimeout
	}
	return caps
}
